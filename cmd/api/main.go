package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bernicerice/MealMission/internal/config"
	"github.com/bernicerice/MealMission/internal/logging"
	"github.com/bernicerice/MealMission/internal/media"
	"github.com/bernicerice/MealMission/internal/repository/memory"
	miniorepo "github.com/bernicerice/MealMission/internal/repository/minio"
	"github.com/bernicerice/MealMission/internal/repository/ports"
	"github.com/bernicerice/MealMission/internal/repository/postgres"
	"github.com/bernicerice/MealMission/internal/service"
	httpapi "github.com/bernicerice/MealMission/internal/transport/http"
	"github.com/bernicerice/MealMission/internal/util"
)

func main() {
	cfg := config.Load()
	closer := logging.Setup("[api]", cfg.LogstashTCPAddr)
	defer closer.Close()

	var (
		docs     ports.DocumentRepository
		users    ports.UserRepository
		sessions ports.SessionRepository
	)
	if cfg.UsesMemoryStore() {
		log.Printf("DATABASE_URL not set, using in-memory store")
		docs, users, sessions = memory.NewDocumentRepo(), memory.NewUserRepo(), memory.NewSessionRepo()
	} else {
		db, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("connect database: %v", err)
		}
		defer db.Close()
		docs, users, sessions = postgres.NewDocumentRepo(db), postgres.NewUserRepo(db), postgres.NewSessionRepo(db)
	}

	docService := service.NewDocumentService(docs)
	if cfg.SeedFile != "" {
		seedCatalog(docService, cfg.SeedFile)
	}
	jwt := util.NewJWTManager(cfg.JWTSecret, cfg.SessionTTL)
	authService := service.NewAuthService(users, sessions, docService, jwt, cfg.GoogleAudience, cfg.RecentLoginWindow)

	var avatarService *service.AvatarService
	if cfg.AvatarsEnabled() {
		client, err := miniorepo.NewClient(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOUseSSL)
		if err != nil {
			log.Fatalf("connect minio: %v", err)
		}
		storage := miniorepo.NewStorage(client, cfg.MinIOPublicURL)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := storage.EnsureBucket(ctx, cfg.MinIOBucketProfile); err != nil {
			log.Fatalf("ensure avatar bucket: %v", err)
		}
		cancel()
		processor := media.NewJPEGProcessor(cfg.AvatarMaxDimension)
		avatarService = service.NewAvatarService(users, storage, processor, cfg.MinIOBucketProfile, cfg.AvatarMaxDimension)
	} else {
		log.Printf("MINIO_ENDPOINT not set, avatar uploads disabled")
	}

	e := httpapi.NewRouter(cfg.AllowOrigins)
	httpapi.RegisterAuth(e, authService, avatarService)
	httpapi.RegisterDocuments(e, authService, docService)
	httpapi.RegisterSwagger(e, cfg.SwaggerSpecPath)

	go func() {
		log.Printf("listening on :%s", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

// seedCatalog merges a YAML catalog into the store at startup. It is mainly
// useful with the in-memory store, which starts empty.
func seedCatalog(docs *service.DocumentService, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read seed file: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	ids, err := service.NewCatalogSeeder(docs).Load(ctx, data, false)
	if err != nil {
		log.Fatalf("seed catalog: %v", err)
	}
	log.Printf("seeded %d restaurants from %s", len(ids), path)
}
