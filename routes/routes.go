package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nimbusdrive/repository"
	"nimbusdrive/services"
)

// ServiceContainer holds every service the HTTP layer depends on, wired over
// a single repository.Store and a shared per-account tree lock.
type ServiceContainer struct {
	JWTSecret string

	Quota   *services.QuotaService
	Folders *services.FolderService
	Files   *services.FileService
	Trash   *services.TrashService
	Stars   *services.StarService
	Search  *services.SearchService
	Shares  services.ShareService
	Billing *services.BillingService
}

// ContainerConfig carries the knobs the services need from the environment.
type ContainerConfig struct {
	JWTSecret         string
	MaxFileSize       int64
	DefaultQuotaLimit int64
}

// NewServiceContainer wires the full service graph. All tree-mutating
// services share one TreeLocker so folder moves, trash cascades and upload
// confirmations serialize per account.
func NewServiceContainer(store repository.Store, blobs services.BlobStore, cfg ContainerConfig, logger *zap.SugaredLogger) *ServiceContainer {
	locks := services.NewTreeLocker()

	quota := services.NewQuotaService(store, cfg.DefaultQuotaLimit, logger)
	folders := services.NewFolderService(store, locks, logger)
	files := services.NewFileService(store, quota, folders, blobs, locks, cfg.MaxFileSize, logger)
	trash := services.NewTrashService(store, store, quota, folders, blobs, locks, logger)
	stars := services.NewStarService(store, store, locks, logger)
	search := services.NewSearchService(store)
	shares := services.NewGrantShareService(store, store)
	billing := services.NewBillingService(store, quota, logger)

	return &ServiceContainer{
		JWTSecret: cfg.JWTSecret,
		Quota:     quota,
		Folders:   folders,
		Files:     files,
		Trash:     trash,
		Stars:     stars,
		Search:    search,
		Shares:    shares,
		Billing:   billing,
	}
}

// SetupRoutes registers every route group on the api group.
func SetupRoutes(api *gin.RouterGroup, container *ServiceContainer) {
	RegisterFolderRoutes(api, container)
	RegisterFileRoutes(api, container)
	RegisterSearchRoutes(api, container)
	RegisterShareRoutes(api, container)
	RegisterUserRoutes(api, container)
	RegisterPaymentRoutes(api, container)
}
