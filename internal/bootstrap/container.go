package bootstrap

import (
	"context"
	"log"

	"planner-notebook-be/internal/config"
	"planner-notebook-be/internal/controller"
	"planner-notebook-be/internal/handler"
	"planner-notebook-be/internal/pkg/logger"
	"planner-notebook-be/internal/pkg/mailer"
	"planner-notebook-be/internal/repository/memory"
	"planner-notebook-be/internal/repository/unitofwork"
	"planner-notebook-be/internal/service"
	"planner-notebook-be/internal/websocket"
	"planner-notebook-be/pkg/kvstore"
	pktNats "planner-notebook-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// InvalidateTopicName is the in-process bus topic carrying view
// invalidations.
const InvalidateTopicName = "INVALIDATE_VIEW"

type Container struct {
	// Controllers
	AuthController   controller.IAuthController
	UserController   controller.IUserController
	FolderController controller.IFolderController
	NoteController   controller.INoteController
	ShareController  controller.IShareController
	EditorController controller.IEditorController

	// Background services (run from main)
	RefreshService service.IRefreshService

	// WebSockets & notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub

	// DraftStore is closed on shutdown.
	DraftStore kvstore.Store
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	wsLogger := logger.NewIsolatedLogger("logs/realtime.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// Local durable draft store. Drafts must survive restarts, so a broken
	// store is fatal.
	draftStore, err := kvstore.Open(cfg.Editor.DraftStorePath)
	if err != nil {
		log.Fatalf("[FATAL] Failed to open draft store: %v", err)
	}

	sessionRepo := memory.NewEditorSessionRepository()

	// 3. Services
	publisherService := service.NewPublisherService(InvalidateTopicName, pubSub)

	var changeFeed service.IChangeFeedPublisher
	if natsPub != nil {
		changeFeed = natsPub
	}

	authService := service.NewAuthService(uowFactory)
	userService := service.NewUserService(uowFactory)
	viewService := service.NewViewService(uowFactory)
	folderService := service.NewFolderService(uowFactory, publisherService, sysLogger)
	noteService := service.NewNoteService(uowFactory, publisherService, changeFeed, sysLogger)
	shareService := service.NewShareService(uowFactory, publisherService, changeFeed, emailService, sysLogger)
	notifService := service.NewNotificationService(uowFactory)

	editorService := service.NewEditorService(
		uowFactory,
		noteService,
		sessionRepo,
		draftStore,
		cfg.Editor.AutosaveDebounce,
		sysLogger,
	)

	refreshService := service.NewRefreshService(pubSub, InvalidateTopicName, natsSub, wsHub, sysLogger)

	// 4. Handlers & controllers
	notifHandler := handler.NewNotificationHandler(notifService, wsHub, wsLogger)

	return &Container{
		NotificationHandler: notifHandler,
		WebSocketHub:        wsHub,
		DraftStore:          draftStore,

		AuthController:   controller.NewAuthController(authService, editorService),
		UserController:   controller.NewUserController(userService),
		FolderController: controller.NewFolderController(folderService, viewService),
		NoteController:   controller.NewNoteController(noteService, viewService),
		ShareController:  controller.NewShareController(shareService),
		EditorController: controller.NewEditorController(editorService),

		RefreshService: refreshService,
	}
}
