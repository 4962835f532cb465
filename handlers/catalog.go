package handlers

import (
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"sitewizard/services"
)

// HandleCatalog handles GET /api/catalog
// Returns the packages and the add-ons currently offered.
func HandleCatalog(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		packages, err := services.ListPackages(app)
		if err != nil {
			log.Printf("catalog: HandleCatalog: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		addons, err := services.ListActiveAddons(app)
		if err != nil {
			log.Printf("catalog: HandleCatalog: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		return e.JSON(http.StatusOK, map[string]any{
			"packages": packages,
			"addons":   addons,
		})
	}
}
