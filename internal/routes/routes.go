package routes

import (
	"net/http"

	"cmspanel/internal/handlers"
	"cmspanel/internal/middleware"
	"cmspanel/internal/models"

	"github.com/gorilla/mux"
)

func InitRoutes(
	router *mux.Router,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	passwordHandler *handlers.PasswordHandler,
	navigationHandler *handlers.NavigationHandler,
	themeHandler *handlers.ThemeHandler,
) {
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Logging)

	api := router.PathPrefix("/api").Subrouter()

	// --- Публичные маршруты ---
	api.HandleFunc("/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/login", authHandler.Login).Methods("POST")
	api.HandleFunc("/refresh", authHandler.Refresh).Methods("POST")

	api.HandleFunc("/password/forgot", passwordHandler.Forgot).Methods("POST")
	api.HandleFunc("/password/reset", passwordHandler.Reset).Methods("POST")

	api.HandleFunc("/navigation", navigationHandler.Tree).Methods("GET")
	api.HandleFunc("/theme", themeHandler.Get).Methods("GET")

	// --- Защищённые JWT ---
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.JWTAuth(jwtSecret))
	protected.Use(middleware.SuperAdminFastLane)

	protected.HandleFunc("/logout", authHandler.Logout).Methods("POST")
	protected.HandleFunc("/profile", authHandler.Profile).Methods("GET")
	protected.HandleFunc("/password/change", passwordHandler.Change).Methods("POST")

	// --- Админка ---
	admin := protected.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.AnyRole(models.RoleAdmin, models.RoleSuperAdmin))

	admin.HandleFunc("/users", authHandler.ListUsers).Methods("GET")
	admin.HandleFunc("/users/{id:[0-9]+}", authHandler.UpdateUser).Methods("PATCH")
	// Удаление пользователей — только суперадмин
	admin.Handle("/users/{id:[0-9]+}",
		middleware.OnlyRole(models.RoleSuperAdmin)(http.HandlerFunc(authHandler.DeleteUser))).Methods("DELETE")

	admin.HandleFunc("/header", navigationHandler.ListHeader).Methods("GET")
	admin.HandleFunc("/header", navigationHandler.CreateHeader).Methods("POST")
	admin.HandleFunc("/header/sub", navigationHandler.CreateSubHeader).Methods("POST")
	admin.HandleFunc("/header/sub/{id:[0-9]+}", navigationHandler.DeleteSubHeader).Methods("DELETE")
	admin.HandleFunc("/header/{id:[0-9]+}", navigationHandler.UpdateHeader).Methods("PUT")
	admin.HandleFunc("/header/{id:[0-9]+}", navigationHandler.DeleteHeader).Methods("DELETE")

	admin.HandleFunc("/sidebar", navigationHandler.ListSidebar).Methods("GET")
	admin.HandleFunc("/sidebar/groups", navigationHandler.CreateSidebarGroup).Methods("POST")
	admin.HandleFunc("/sidebar/groups/{id:[0-9]+}", navigationHandler.UpdateSidebarGroup).Methods("PUT")
	admin.HandleFunc("/sidebar/groups/{id:[0-9]+}", navigationHandler.DeleteSidebarGroup).Methods("DELETE")
	admin.HandleFunc("/sidebar/items", navigationHandler.CreateSidebarItem).Methods("POST")
	admin.HandleFunc("/sidebar/items/{id:[0-9]+}", navigationHandler.UpdateSidebarItem).Methods("PUT")
	admin.HandleFunc("/sidebar/items/{id:[0-9]+}", navigationHandler.DeleteSidebarItem).Methods("DELETE")

	admin.HandleFunc("/footer", navigationHandler.ListFooter).Methods("GET")
	admin.HandleFunc("/footer", navigationHandler.CreateFooter).Methods("POST")
	admin.HandleFunc("/footer/{id:[0-9]+}", navigationHandler.UpdateFooter).Methods("PUT")
	admin.HandleFunc("/footer/{id:[0-9]+}", navigationHandler.DeleteFooter).Methods("DELETE")

	admin.HandleFunc("/theme", themeHandler.Save).Methods("PUT")
}
