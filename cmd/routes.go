package main

import (
	"net/http"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"

	"dynamoBack/internal/handlers"
)

func (app *application) routes() http.Handler {
	baseMiddleware := alice.New(app.recoverPanic, app.logRequest, secureHeaders)
	standardMiddleware := baseMiddleware.Append(makeResponseJSON)
	adminMiddleware := standardMiddleware.Append(app.adminAuth)

	mux := pat.New()

	// Checkout functions
	mux.Post("/functions/v1/create-order", standardMiddleware.ThenFunc(app.orderHandler.CreateOrder))
	mux.Options("/functions/v1/create-order", standardMiddleware.ThenFunc(handlers.Preflight))
	mux.Post("/functions/v1/verify-payment", standardMiddleware.ThenFunc(app.orderHandler.VerifyPayment))
	mux.Options("/functions/v1/verify-payment", standardMiddleware.ThenFunc(handlers.Preflight))
	mux.Get("/pricing", standardMiddleware.ThenFunc(app.orderHandler.Pricing))

	// Download gate
	mux.Get("/download/link", standardMiddleware.ThenFunc(app.downloadHandler.Link))
	mux.Get("/download/ws", baseMiddleware.ThenFunc(app.downloadHandler.Countdown))
	mux.Get("/download", baseMiddleware.ThenFunc(app.downloadHandler.Page))

	// Contact
	mux.Post("/contact", standardMiddleware.ThenFunc(app.contactHandler.Submit))

	// Admin
	mux.Post("/admin/sign_in", standardMiddleware.ThenFunc(app.adminHandler.SignIn))
	mux.Get("/admin/purchases", adminMiddleware.ThenFunc(app.adminHandler.ListPurchases))
	mux.Post("/admin/purchases/:id/reissue", adminMiddleware.ThenFunc(app.adminHandler.Reissue))
	mux.Post("/admin/ebook", adminMiddleware.ThenFunc(app.adminHandler.UploadEbook))

	mux.Get("/healthz", standardMiddleware.ThenFunc(app.healthz))

	return mux
}

func (app *application) healthz(w http.ResponseWriter, r *http.Request) {
	if err := app.db.PingContext(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"unavailable"}`))
		return
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
