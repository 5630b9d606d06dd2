package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/tasktracker-app/tasktracker/pkg/communication"
	"github.com/tasktracker-app/tasktracker/pkg/environment"
	"github.com/tasktracker-app/tasktracker/pkg/logger"
	"github.com/tasktracker-app/tasktracker/pkg/timeblocks"
	"github.com/tasktracker-app/tasktracker/pkg/todos"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	var logging logger.Interface = logger.Logger{}
	fmt.Println("Server is starting up...")

	environment.Initialize()

	client, err := mongo.NewClient(options.Client().ApplyURI(environment.Global.DatabaseURL))
	if err != nil {
		log.Fatal(err)
	}

	var ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = client.Connect(ctx)
	if err != nil {
		log.Panic(err)
	}

	err = client.Ping(ctx, nil)
	if err != nil {
		log.Panic(err)
	}

	defer func() {
		err := client.Disconnect(ctx)
		if err != nil {
			logging.Fatal(err)
		}
	}()

	fmt.Println("Database connected")

	db := client.Database(environment.Global.Database)

	blockCollection := db.Collection("TimeBlocks")
	todoCollection := db.Collection("TodoItems")

	responseManager := communication.ResponseManager{Logger: logging}

	listCache := buildListCache(logging)

	var blockRepository timeblocks.TimeBlockRepositoryInterface = &timeblocks.MongoDBTimeBlockRepository{DB: blockCollection, Logger: logging}
	blockHandler := timeblocks.Handler{
		TimeBlockRepository: blockRepository,
		ListCache:           listCache,
		Logger:              logging,
		ResponseManager:     &responseManager,
	}

	var todoRepository todos.TodoRepositoryInterface = &todos.MongoDBTodoRepository{DB: todoCollection, Logger: logging}
	todoHandler := todos.Handler{
		TodoRepository:  todoRepository,
		Logger:          logging,
		ResponseManager: &responseManager,
	}

	r := mux.NewRouter()
	r.HandleFunc("/", func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusOK)

		_, err := fmt.Fprint(writer, "Task tracker API is up")
		if err != nil {
			log.Printf("Error: %v\n", err)
		}
	})

	r.HandleFunc("/api/timeblocks", blockHandler.TimeBlockList).Methods(http.MethodGet)
	r.HandleFunc("/api/timeblocks", blockHandler.TimeBlockAdd).Methods(http.MethodPost)
	r.HandleFunc("/api/timeblocks/{blockID}", blockHandler.TimeBlockGet).Methods(http.MethodGet)
	r.HandleFunc("/api/timeblocks/{blockID}", blockHandler.TimeBlockUpdate).Methods(http.MethodPut)
	r.HandleFunc("/api/timeblocks/{blockID}", blockHandler.TimeBlockDelete).Methods(http.MethodDelete)

	r.HandleFunc("/api/todoitems", todoHandler.TodoList).Methods(http.MethodGet)
	r.HandleFunc("/api/todoitems", todoHandler.TodoAdd).Methods(http.MethodPost)
	r.HandleFunc("/api/todoitems/{itemID}", todoHandler.TodoGet).Methods(http.MethodGet)
	r.HandleFunc("/api/todoitems/{itemID}", todoHandler.TodoUpdate).Methods(http.MethodPut)
	r.HandleFunc("/api/todoitems/{itemID}", todoHandler.TodoDelete).Methods(http.MethodDelete)

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Content-Type", "application/json")
			next.ServeHTTP(w, r)
		})
	})

	corsOptions := cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	}
	if environment.Global.Cors != "" {
		corsOptions.AllowedOrigins = []string{environment.Global.Cors}
	}
	handler := cors.New(corsOptions).Handler(r)

	fmt.Printf("Listening on port %s\n", environment.Global.Port)
	log.Panic(http.ListenAndServe(":"+environment.Global.Port, handler))
}

// buildListCache picks Redis when configured and falls back to process memory
func buildListCache(logging logger.Interface) timeblocks.ListCacheInterface {
	if environment.Global.Redis != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     environment.Global.Redis,
			Password: environment.Global.RedisPassword,
		})

		cache, err := timeblocks.NewListCacheRedis(redisClient)
		if err != nil {
			logging.Fatal(err)
		}

		logging.Info("Using Redis list cache")
		return cache
	}

	cache, err := timeblocks.NewListCacheMemory()
	if err != nil {
		logging.Fatal(err)
	}

	return cache
}
