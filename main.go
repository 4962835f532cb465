package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"sitewizard/collections"
	"sitewizard/commands"
	"sitewizard/config"
	"sitewizard/handlers"
	"sitewizard/stores"
	"sitewizard/wizard"
)

// openWizardStore picks the persistence backend for wizard sessions.
func openWizardStore(app *pocketbase.PocketBase, settings config.Config) (wizard.Store, error) {
	switch settings.Store {
	case config.StoreRedis:
		store := stores.NewRedisStoreFromAddr(settings.RedisAddr, settings.RedisPrefix, settings.SessionTTL)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("redis at %s: %w", settings.RedisAddr, err)
		}
		return store, nil
	case config.StoreMemory:
		return stores.NewMemoryStore(), nil
	default:
		return stores.NewRecordStore(app), nil
	}
}

func main() {
	settings, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	app := pocketbase.New()

	app.RootCmd.AddCommand(commands.NewRecalcCommand(app))
	app.RootCmd.AddCommand(commands.NewPruneSessionsCommand(app, settings))

	// Create collections and seed data on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		collections.Setup(app)
		if err := collections.Seed(app); err != nil {
			log.Printf("Warning: seed data failed: %v", err)
		}
		if err := collections.MigrateProposalTotals(app); err != nil {
			log.Printf("Warning: proposal totals migration failed: %v", err)
		}
		if settings.Store == config.StoreRecords {
			if _, err := collections.PruneWizardSessions(app, settings.SessionTTL, time.Now()); err != nil {
				log.Printf("Warning: wizard session pruning failed: %v", err)
			}
		}
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		store, err := openWizardStore(app, settings)
		if err != nil {
			return fmt.Errorf("wizard store: %w", err)
		}
		log.Printf("wizard: using %s session store", settings.Store)
		ws := handlers.NewWizardSessions(store, settings)

		se.Router.GET("/static/{path...}", apis.Static(os.DirFS("./static"), false))

		// ── Wizard ──────────────────────────────────────────────
		wg := se.Router.Group("/wizard")
		wg.BindFunc(handlers.WizardSessionMiddleware(settings))
		wg.GET("", handlers.HandleWizardView(app, ws))
		wg.GET("/state", handlers.HandleWizardState(app, ws))
		wg.GET("/price", handlers.HandleWizardPrice(app, ws))
		wg.POST("/step", handlers.HandleWizardStepSave(app, ws))
		wg.POST("/prev", handlers.HandleWizardPrev(app, ws))
		wg.POST("/goto/{step}", handlers.HandleWizardGoTo(app, ws))
		wg.POST("/reset", handlers.HandleWizardReset(app, ws))
		wg.POST("/addons/{addonId}/toggle", handlers.HandleWizardToggleAddon(app, ws))
		wg.POST("/submit", handlers.HandleWizardSubmit(app, ws))

		// ── Catalog ─────────────────────────────────────────────
		se.Router.GET("/api/catalog", handlers.HandleCatalog(app))

		// ── Site requests ───────────────────────────────────────
		se.Router.GET("/site-requests", handlers.HandleSiteRequestList(app))
		se.Router.POST("/site-requests/{id}/proposal", handlers.HandleProposalFromSiteRequest(app, settings))

		// ── Proposals ───────────────────────────────────────────
		se.Router.GET("/proposals", handlers.HandleProposalList(app))
		se.Router.POST("/proposals", handlers.HandleProposalCreate(app, settings))
		se.Router.POST("/proposals/{id}/save", handlers.HandleProposalUpdate(app, settings))
		se.Router.POST("/proposals/{id}/recalculate", handlers.HandleProposalRecalculate(app))

		// ── Proposal line items ─────────────────────────────────
		se.Router.POST("/proposals/{id}/line-items", handlers.HandleProposalAddLineItem(app))
		se.Router.PATCH("/proposals/{id}/line-items/{itemId}", handlers.HandleProposalUpdateLineItem(app))
		se.Router.DELETE("/proposals/{id}/line-items/{itemId}", handlers.HandleProposalDeleteLineItem(app))

		// ── Proposal export ─────────────────────────────────────
		se.Router.GET("/proposals/{id}/export/pdf", handlers.HandleProposalExportPDF(app))
		se.Router.GET("/proposals/{id}/export/excel", handlers.HandleProposalExportExcel(app))

		// ── Proposal view, delete (after specific /proposals/{id}/* routes) ──
		se.Router.GET("/proposals/{id}", handlers.HandleProposalView(app))
		se.Router.DELETE("/proposals/{id}", handlers.HandleProposalDelete(app))

		// Redirect home to the wizard
		se.Router.GET("/", func(e *core.RequestEvent) error {
			return e.Redirect(http.StatusFound, "/wizard")
		})

		return se.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
