//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/krishi-vaani/internal/bootstrap"
	"github.com/yanqian/krishi-vaani/internal/domain/chat"
	"github.com/yanqian/krishi-vaani/internal/domain/disease"
	"github.com/yanqian/krishi-vaani/internal/domain/document"
	"github.com/yanqian/krishi-vaani/internal/domain/environment"
	"github.com/yanqian/krishi-vaani/internal/domain/expert"
	"github.com/yanqian/krishi-vaani/internal/domain/orchestrator"
	"github.com/yanqian/krishi-vaani/internal/domain/recommendation"
	"github.com/yanqian/krishi-vaani/internal/domain/session"
	"github.com/yanqian/krishi-vaani/internal/infra/config"
	"github.com/yanqian/krishi-vaani/internal/infra/expertdir"
	"github.com/yanqian/krishi-vaani/internal/infra/geocode/nominatim"
	"github.com/yanqian/krishi-vaani/internal/infra/predictor"
	"github.com/yanqian/krishi-vaani/internal/infra/weather/openmeteo"
	httpiface "github.com/yanqian/krishi-vaani/internal/interface/http"
	"github.com/yanqian/krishi-vaani/pkg/logger"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		provideGenerator,
		provideEnvironmentConfig,
		provideWeatherClient,
		provideGeocoder,
		provideWeatherCache,
		provideCachePurger,
		providePredictor,
		provideObjectStore,
		provideImageArchive,
		provideDocumentStorage,
		provideDocumentConfig,
		provideDocumentRepository,
		provideEmbedder,
		provideChunker,
		provideChatRetriever,
		provideRecommendationConfig,
		provideDiseaseConfig,
		provideOrchestratorConfig,
		provideSessionConfig,
		provideChatConfig,
		provideTokenCounter,
		provideChatRepository,
		provideExpertConfig,
		provideExpertDirectory,
		environment.NewService,
		recommendation.NewService,
		disease.NewService,
		orchestrator.NewService,
		session.NewService,
		chat.NewService,
		document.NewService,
		expert.NewService,
		wire.Bind(new(environment.WeatherClient), new(*openmeteo.Client)),
		wire.Bind(new(environment.Geocoder), new(*nominatim.Client)),
		wire.Bind(new(recommendation.Predictor), new(*predictor.Client)),
		wire.Bind(new(disease.Classifier), new(*predictor.Client)),
		wire.Bind(new(expert.Directory), new(*expertdir.Client)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
