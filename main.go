package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/cors"

	"github.com/krishnaher0/taskboard/database"
	"github.com/krishnaher0/taskboard/handlers"
	"github.com/krishnaher0/taskboard/services"
)

func main() {
	// Load environment variables from .env file
	err := services.LoadEnv(".env")
	if err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./taskboard.db"
	}

	// Initialize database
	db, err := database.InitDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize services
	authService := services.NewAuthService()
	boardService := database.NewBoardService(db)

	// Initialize WebSocket hub
	hub := services.NewHub()
	go hub.Run()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, boardService)
	workspaceHandler := handlers.NewWorkspaceHandler(boardService)
	boardHandler := handlers.NewBoardHandler(boardService, hub)
	authMiddleware := handlers.NewAuthMiddleware(authService)

	// Setup router
	r := mux.NewRouter()

	// Auth routes
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/api/auth/verify", authHandler.VerifyToken).Methods("GET")
	r.HandleFunc("/api/auth/magic-link", authHandler.HandleMagicLink).Methods("GET")

	// Workspace and board routes (protected)
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware.Auth)

	api.HandleFunc("/workspaces", workspaceHandler.CreateWorkspace).Methods("POST")
	api.HandleFunc("/workspaces/{workspaceId}", workspaceHandler.GetWorkspace).Methods("GET")
	api.HandleFunc("/workspaces/{workspaceId}/collaborators", workspaceHandler.AddCollaborator).Methods("POST")
	api.HandleFunc("/workspaces/{workspaceId}/collaborators/{user}", workspaceHandler.RemoveCollaborator).Methods("DELETE")
	api.HandleFunc("/workspaces/{workspaceId}/invite", workspaceHandler.SetInvite).Methods("PUT")
	api.HandleFunc("/workspaces/{workspaceId}/join", workspaceHandler.Join).Methods("POST")

	api.HandleFunc("/workspaces/{workspaceId}/boards", boardHandler.ListBoards).Methods("GET")
	api.HandleFunc("/workspaces/{workspaceId}/boards", boardHandler.CreateBoard).Methods("POST")
	api.HandleFunc("/workspaces/{workspaceId}/boards/{boardId}", boardHandler.GetBoard).Methods("GET")
	api.HandleFunc("/workspaces/{workspaceId}/boards/{boardId}", boardHandler.UpdateBoard).Methods("PUT")
	api.HandleFunc("/workspaces/{workspaceId}/boards/{boardId}", boardHandler.DeleteBoard).Methods("DELETE")

	api.HandleFunc("/workspaces/{workspaceId}/boards/{boardId}/columns", boardHandler.AddColumn).Methods("POST")
	api.HandleFunc("/workspaces/{workspaceId}/boards/{boardId}/columns/{columnId}", boardHandler.RenameColumn).Methods("PUT")
	api.HandleFunc("/workspaces/{workspaceId}/boards/{boardId}/columns/{columnId}", boardHandler.DeleteColumn).Methods("DELETE")

	api.HandleFunc("/workspaces/{workspaceId}/boards/{boardId}/columns/{columnId}/cards", boardHandler.AddCard).Methods("POST")
	api.HandleFunc("/workspaces/{workspaceId}/boards/{boardId}/columns/{columnId}/cards/{cardId}", boardHandler.UpdateCard).Methods("PUT")
	api.HandleFunc("/workspaces/{workspaceId}/boards/{boardId}/columns/{columnId}/cards/{cardId}", boardHandler.DeleteCard).Methods("DELETE")
	api.HandleFunc("/workspaces/{workspaceId}/boards/{boardId}/cards/move", boardHandler.MoveCard).Methods("PUT")
	api.HandleFunc("/workspaces/{workspaceId}/boards/{boardId}/columns/{columnId}/cards/{cardId}/comments", boardHandler.AddComment).Methods("POST")

	// WebSocket route for real-time board updates
	api.HandleFunc("/workspaces/{workspaceId}/boards/{boardId}/ws", boardHandler.HandleWebSocket)

	// Static file server for frontend
	r.PathPrefix("/").Handler(http.FileServer(http.Dir("./")))

	// Setup CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // In production, change to your domain
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      c.Handler(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Server starting on port %s", port)
	log.Fatal(server.ListenAndServe())
}
