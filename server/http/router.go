package serverhttp

import (
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"armkala-backend/internal/api"
	"armkala-backend/internal/config"
	"armkala-backend/internal/middleware"
)

func NewRouter(cfg config.Config, logger zerolog.Logger, a *api.API) *chi.Mux {
	r := chi.NewRouter()

	// order matters: recover -> requestID -> logging -> cors -> limit
	r.Use(middleware.Recover(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.AllowOrigins))
	r.Use(middleware.LimitBytes(int64(cfg.MaxUploadMB) * 1024 * 1024))

	r.Get("/health", a.Health)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", a.ListProducts)
		r.Get("/suggest", a.SuggestProducts)
		r.Post("/rename", a.RenameProduct)
	})

	r.Route("/inventory", func(r chi.Router) {
		r.Post("/open", a.OpenInventory)
		r.Post("/reload", a.ReloadInventory)
		r.Post("/save", a.SaveInventory)
		r.Post("/sell-prices", a.ImportSellPrices)
		r.Get("/low-stock", a.LowStockReport)
	})

	r.Route("/sales", func(r chi.Router) {
		r.Post("/import", a.ImportSales)
		r.Post("/preview", a.PreviewSales)
		r.Post("/refresh", a.RefreshSales)
		r.Post("/commit", a.CommitSales)
	})

	r.Post("/purchase/apply", a.ApplyPurchase)

	r.Route("/invoices", func(r chi.Router) {
		r.Get("/", a.ListInvoices)
		r.Get("/range", a.InvoicesBetween)
		r.Get("/stats", a.LedgerStats)
		r.Get("/monthly", a.MonthlySummary)
		r.Get("/{id}", a.GetInvoice)
		r.Patch("/{id}/name", a.RenameInvoice)
		r.Put("/{id}", a.EditInvoice)
		r.Delete("/{id}", a.DeleteInvoice)
	})

	r.Route("/analytics", func(r chi.Router) {
		r.Get("/top-sold", a.TopSoldProducts)
		r.Get("/unsold", a.UnsoldProducts)
		r.Get("/monthly-qty", a.MonthlyQuantities)
	})

	r.Post("/auth/login", a.Login)
	r.Route("/admins", func(r chi.Router) {
		r.Get("/", a.ListAdmins)
		r.Post("/", a.CreateAdmin)
		r.Patch("/{id}", a.UpdateAdmin)
		r.Delete("/{id}", a.DeleteAdmin)
	})

	r.Get("/actions", a.ListActions)

	r.Route("/backup", func(r chi.Router) {
		r.Post("/send", a.SendBackup)
		r.Post("/restore", a.RestoreBackup)
	})

	r.Get("/settings", a.GetSettings)
	r.Patch("/settings", a.UpdateSettings)

	return r
}
