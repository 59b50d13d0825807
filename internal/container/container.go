package container

import (
	"context"
	stderrors "errors"
	"fmt"

	"artbench/adapters/excel"
	"artbench/adapters/postgres"
	"artbench/app"
	"artbench/domain/analysis"
	"artbench/domain/stats"
	"artbench/internal"
	"artbench/internal/config"
	"artbench/internal/errors"
	"artbench/internal/migration"
	"artbench/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds the wired source, sinks and pipeline for one process.
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	// Data access
	Source       ports.SampleSource
	Observations *postgres.ObservationRepository
	Results      *postgres.ResultRepository
	Exporter     *excel.WorkbookExporter

	Artists  analysis.ArtistTable
	Pipeline *app.Pipeline
}

// New loads the artist table; sources and sinks are attached by the Init methods.
func New(cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
	}

	artists, err := config.LoadArtistTable(cfg.Files.ArtistsFile)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:  cfg,
		Logger:  logger,
		Artists: artists,
	}, nil
}

// Init picks the database when DATABASE_URL is set and the input file otherwise.
func (c *Container) Init(ctx context.Context) error {
	if c.Config.Database.URL != "" {
		return c.InitWithDatabase(ctx, false)
	}
	if c.Config.Files.InputFile != "" {
		return c.InitWithFiles(c.Config.Files.InputFile, c.Config.Files.ExportFile)
	}
	return errors.ConfigInvalid("either DATABASE_URL or INPUT_FILE must be set")
}

// InitWithDatabase connects, optionally applies the schema and wires the
// repositories as source and sink. EXPORT_FILE, when set, receives a copy.
func (c *Container) InitWithDatabase(ctx context.Context, migrate bool) error {
	if err := c.Config.RequireDatabase(); err != nil {
		return err
	}
	db, err := postgres.Open(ctx, c.Config.Database.URL, c.Config.Database.MaxOpenConns)
	if err != nil {
		return err
	}
	c.DB = db

	if migrate {
		if err := migration.NewRunner().Run(ctx, db); err != nil {
			return errors.Wrap(err, "database migration failed")
		}
	}

	c.Observations = postgres.NewObservationRepository(db, c.Config.Database.QueryTimeout)
	c.Results = postgres.NewResultRepository(db, c.Config.Database.QueryTimeout)
	c.Source = c.Observations

	sinks := []ports.ResultSink{c.Results}
	if c.Config.Files.ExportFile != "" {
		c.Exporter = excel.NewWorkbookExporter(c.Config.Files.ExportFile)
		sinks = append(sinks, c.Exporter)
	}
	c.wirePipeline(sinks)

	c.Logger.Info("container initialized with database source")
	return nil
}

// InitWithFiles reads observations from input and, when export is set, writes
// results to that workbook on Flush.
func (c *Container) InitWithFiles(input, export string) error {
	if input == "" {
		return errors.ConfigInvalid("input file is required")
	}
	cfg := excel.DefaultExcelConfig()
	cfg.FilePath = input
	cfg.Enabled = true
	c.Source = excel.NewObservationReader(cfg)

	var sinks []ports.ResultSink
	if export != "" {
		c.Exporter = excel.NewWorkbookExporter(export)
		sinks = append(sinks, c.Exporter)
	}
	c.wirePipeline(sinks)

	c.Logger.Info("container initialized with file source %s", input)
	return nil
}

func (c *Container) wirePipeline(sinks []ports.ResultSink) {
	c.Pipeline = app.NewPipeline(c.Source, teeSink(sinks), c.Logger, c.Config.Analysis.WorkerLimit)
}

// TestOptions returns the configured testing defaults.
func (c *Container) TestOptions() app.TestOptions {
	return app.TestOptions{
		Alpha:       c.Config.Analysis.Alpha,
		Method:      c.Config.Analysis.CorrectionMethod,
		GateOnANOVA: c.Config.Analysis.GateOnANOVA,
		MinSamples:  c.Config.Analysis.MinSamples,
	}
}

// Run executes one pipeline request and flushes the export workbook.
func (c *Container) Run(ctx context.Context, req app.PipelineRequest) (*app.PipelineReport, error) {
	if c.Pipeline == nil {
		return nil, errors.InternalError("container not initialized")
	}
	report, err := c.Pipeline.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := c.Flush(); err != nil {
		return nil, err
	}
	return report, nil
}

// Flush writes the export workbook if one is configured.
func (c *Container) Flush() error {
	if c.Exporter == nil {
		return nil
	}
	if err := c.Exporter.Flush(); err != nil {
		if stderrors.Is(err, excel.ErrNothingToExport) {
			c.Logger.Warn("%v", err)
			return nil
		}
		return errors.Wrap(err, "failed to write export workbook")
	}
	return nil
}

// Shutdown closes the database connection
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// teeSink saves every record to each sink in order and stops at the first error.
type teeSink []ports.ResultSink

func (t teeSink) SaveDescriptive(ctx context.Context, records []stats.DescriptiveRecord) error {
	for _, s := range t {
		if err := s.SaveDescriptive(ctx, records); err != nil {
			return err
		}
	}
	return nil
}

func (t teeSink) SaveANOVA(ctx context.Context, record stats.ANOVARecord) error {
	for _, s := range t {
		if err := s.SaveANOVA(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

func (t teeSink) SavePairwise(ctx context.Context, comparisons []stats.PairwiseComparison) error {
	for _, s := range t {
		if err := s.SavePairwise(ctx, comparisons); err != nil {
			return err
		}
	}
	return nil
}
