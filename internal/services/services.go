package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/harborhealth/harbor-backend/internal/auth"
	"github.com/harborhealth/harbor-backend/internal/botchat"
	"github.com/harborhealth/harbor-backend/internal/config"
	"github.com/harborhealth/harbor-backend/internal/database"
	"github.com/harborhealth/harbor-backend/internal/genai"
	"github.com/harborhealth/harbor-backend/internal/meeting"
	"github.com/harborhealth/harbor-backend/internal/recording"
	"github.com/harborhealth/harbor-backend/internal/repository"
	"github.com/harborhealth/harbor-backend/internal/repository/postgres"
	"github.com/harborhealth/harbor-backend/internal/storage"
	"github.com/harborhealth/harbor-backend/internal/transcribe"
)

// ErrGenAINotConfigured is returned by the stand-in generator when no
// generative-text API key is set.
var ErrGenAINotConfigured = errors.New("genai is not configured")

// Services holds all service instances
type Services struct {
	Config *config.Config
	Log    *logrus.Logger

	Users         repository.UserRepository
	Conversations repository.ConversationRepository
	Messages      repository.MessageRepository
	CarePlans     repository.CarePlanRepository
	Homework      repository.HomeworkRepository
	Recordings    repository.RecordingRepository

	Auth        *auth.Service
	Bot         *botchat.Service
	GenAI       *genai.Client
	Sessions    *meeting.Registry
	Rooms       *meeting.RoomsClient
	Storage     storage.ObjectStore
	Ingestor    *recording.Ingestor
	Transcriber *transcribe.Client
}

// unconfiguredGenerator stands in for the genai client when no API key is
// set, so bot turns fall back instead of panicking.
type unconfiguredGenerator struct{}

func (unconfiguredGenerator) BotReply(ctx context.Context, history []string) (string, error) {
	return "", ErrGenAINotConfigured
}

// NewServices creates all service instances
func NewServices(cfg *config.Config, db *database.DB, log *logrus.Logger) (*Services, error) {
	users := postgres.NewUserRepository(db.DB)
	conversations := postgres.NewConversationRepository(db.DB)
	messages := postgres.NewMessageRepository(db.DB)
	carePlans := postgres.NewCarePlanRepository(db.DB)
	homework := postgres.NewHomeworkRepository(db.DB)
	recordings := postgres.NewRecordingRepository(db.DB)

	jwtService := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	authService := auth.NewService(users, jwtService)

	var gen botchat.Generator = unconfiguredGenerator{}
	var genClient *genai.Client
	if cfg.GenAI.APIKey != "" {
		var err error
		genClient, err = genai.New(cfg.GenAI)
		if err != nil {
			return nil, err
		}
		gen = genClient
	} else {
		log.Warn("genai api key not set, bot replies will use fallback text")
	}

	store, err := storage.NewS3Store(cfg.Storage)
	if err != nil {
		return nil, err
	}

	sessions := meeting.NewRegistry()

	return &Services{
		Config:        cfg,
		Log:           log,
		Users:         users,
		Conversations: conversations,
		Messages:      messages,
		CarePlans:     carePlans,
		Homework:      homework,
		Recordings:    recordings,
		Auth:          authService,
		Bot:           botchat.NewService(conversations, messages, gen, log),
		GenAI:         genClient,
		Sessions:      sessions,
		Rooms:         meeting.NewRoomsClient(cfg.Rooms),
		Storage:       store,
		Ingestor:      recording.NewIngestor(sessions, store, recordings, log),
		Transcriber:   transcribe.New(cfg.Transcribe, log),
	}, nil
}
