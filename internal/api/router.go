package api

import (
	"database/sql"
	"net/http"

	"github.com/ztrcek/hisnik/internal/metrics"
	"github.com/ztrcek/hisnik/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	keysHandler := &KeysHandler{DB: db}
	radiosHandler := &RadiosHandler{DB: db}
	assetsHandler := &AssetsHandler{DB: db}
	componentsHandler := &ComponentsHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireManager := RequireRole(model.RoleManager)
	requireUser := RequireRole(model.RoleUser)

	// Public: login and metrics.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.Handle("GET /metrics", metrics.Handler())

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Key custody ledger: read (any authenticated role), transfers (user+),
	// registration/consolidation (manager+).
	mux.Handle("GET /api/keys", authMW(http.HandlerFunc(keysHandler.List)))
	mux.Handle("POST /api/keys", authMW(requireManager(http.HandlerFunc(keysHandler.Create))))
	mux.Handle("GET /api/keys/search", authMW(http.HandlerFunc(keysHandler.Search)))
	mux.Handle("GET /api/keys/logs", authMW(http.HandlerFunc(keysHandler.Logs)))
	mux.Handle("POST /api/keys/stock", authMW(requireManager(http.HandlerFunc(keysHandler.RegisterStock))))
	mux.Handle("POST /api/keys/transfer", authMW(requireUser(http.HandlerFunc(keysHandler.Transfer))))
	mux.Handle("POST /api/keys/consolidate", authMW(requireAdmin(http.HandlerFunc(keysHandler.Consolidate))))
	mux.Handle("GET /api/keys/{id}", authMW(http.HandlerFunc(keysHandler.Get)))
	mux.Handle("DELETE /api/keys/{id}", authMW(requireManager(http.HandlerFunc(keysHandler.Delete))))

	// Radios: read (any), sign out/in (user+), create/delete (manager+).
	mux.Handle("GET /api/radios", authMW(http.HandlerFunc(radiosHandler.List)))
	mux.Handle("POST /api/radios", authMW(requireManager(http.HandlerFunc(radiosHandler.Create))))
	mux.Handle("GET /api/radios/assignments", authMW(http.HandlerFunc(radiosHandler.ListAssignments)))
	mux.Handle("POST /api/radios/assignments/{id}/parts", authMW(requireUser(http.HandlerFunc(radiosHandler.AddParts))))
	mux.Handle("GET /api/radios/{id}", authMW(http.HandlerFunc(radiosHandler.Get)))
	mux.Handle("DELETE /api/radios/{id}", authMW(requireManager(http.HandlerFunc(radiosHandler.Delete))))
	mux.Handle("POST /api/radios/{id}/signout", authMW(requireUser(http.HandlerFunc(radiosHandler.SignOut))))
	mux.Handle("POST /api/radios/{id}/signin", authMW(requireUser(http.HandlerFunc(radiosHandler.SignIn))))

	// Assets: read (any), write (manager+).
	mux.Handle("GET /api/assets", authMW(http.HandlerFunc(assetsHandler.List)))
	mux.Handle("POST /api/assets", authMW(requireManager(http.HandlerFunc(assetsHandler.Create))))
	mux.Handle("GET /api/assets/{id}", authMW(http.HandlerFunc(assetsHandler.Get)))
	mux.Handle("PUT /api/assets/{id}", authMW(requireManager(http.HandlerFunc(assetsHandler.Update))))
	mux.Handle("DELETE /api/assets/{id}", authMW(requireManager(http.HandlerFunc(assetsHandler.Delete))))
	mux.Handle("PUT /api/assets/{id}/image", authMW(requireManager(http.HandlerFunc(assetsHandler.UploadImage))))
	mux.Handle("GET /api/assets/{id}/image", authMW(http.HandlerFunc(assetsHandler.GetImage)))

	// Components & inspections: read (any), schedule admin (manager+),
	// logging inspections (manager+).
	mux.Handle("GET /api/components", authMW(http.HandlerFunc(componentsHandler.List)))
	mux.Handle("POST /api/components", authMW(requireManager(http.HandlerFunc(componentsHandler.Create))))
	mux.Handle("GET /api/components/due", authMW(http.HandlerFunc(componentsHandler.DueStatus)))
	mux.Handle("GET /api/components/{id}", authMW(http.HandlerFunc(componentsHandler.Get)))
	mux.Handle("PUT /api/components/{id}", authMW(requireManager(http.HandlerFunc(componentsHandler.Update))))
	mux.Handle("DELETE /api/components/{id}", authMW(requireManager(http.HandlerFunc(componentsHandler.Delete))))
	mux.Handle("GET /api/components/{id}/inspections", authMW(http.HandlerFunc(componentsHandler.Inspections)))
	mux.Handle("POST /api/components/{id}/inspections", authMW(requireManager(http.HandlerFunc(componentsHandler.Inspect))))

	return mux
}
