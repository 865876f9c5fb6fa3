package queries

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dawita19/earnmax-sub001/config"
)

// Repo wraps the writer and reader database connections. All SQL lives in
// this package; the engines only see the narrow store interfaces it satisfies.
type Repo struct {
	Conn       *gorm.DB
	ConnReader *gorm.DB
}

// NewRepo connect to the configured database cluster
func NewRepo(cfg config.DatabaseClusterConfig) (*Repo, error) {
	writer, err := connect(cfg.Writer)
	if err != nil {
		return nil, err
	}
	log.Info().Str("section", "queries").Str("host", cfg.Writer.Host).Msg("Connected to database [WRITER]")

	reader := writer
	if cfg.Reader.Host != "" && cfg.Reader.Host != cfg.Writer.Host {
		reader, err = connect(cfg.Reader)
		if err != nil {
			return nil, err
		}
		log.Info().Str("section", "queries").Str("host", cfg.Reader.Host).Msg("Connected to database [READER]")
	}

	return &Repo{Conn: writer, ConnReader: reader}, nil
}

func connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s application_name=%s",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Name, cfg.SSLmode, cfg.ApplicationName,
	)
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
}

// Close terminate the underlying connections
func (repo *Repo) Close() {
	for _, conn := range []*gorm.DB{repo.Conn, repo.ConnReader} {
		db, err := conn.DB()
		if err != nil {
			continue
		}
		_ = db.Close()
	}
}
