package export

import (
	"fmt"
	"time"

	"github.com/dnsboard/dnsboard/model"
	"github.com/dnsboard/dnsboard/util"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Job is the persisted export job record, the only shared mutable state of
// the pipeline
type Job struct {
	ID           string `gorm:"primaryKey"`
	Format       string
	FilterSpec   string
	MaxRecords   int
	RequestedBy  string
	Status       string `gorm:"index"`
	FilePath     string
	FileSize     int64
	RecordCount  int
	ErrorMessage string
	CreatedAt    time.Time
	CompletedAt  *time.Time
}

// Store persists export jobs
type Store struct {
	db *gorm.DB
}

// NewStore opens the job database and migrates the schema
func NewStore(target string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(target), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("can't open job database: %w", err)
	}

	util.FatalOnError("can't perform auto migration: ", db.AutoMigrate(&Job{}))

	return &Store{db: db}, nil
}

// Create inserts a new job, the caller is expected to pass it in pending
// state
func (s *Store) Create(job *Job) error {
	return s.db.Create(job).Error
}

// Get returns the job with the passed id
func (s *Store) Get(id string) (*Job, error) {
	var job Job

	err := s.db.First(&job, "id = ?", id).Error
	if err != nil {
		return nil, err
	}

	return &job, nil
}

// IDsInStatus returns the ids of all jobs in the passed status, oldest first
func (s *Store) IDsInStatus(status model.JobStatus) ([]string, error) {
	var ids []string

	err := s.db.Model(&Job{}).
		Where("status = ?", string(status)).
		Order("created_at").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}

	return ids, nil
}

// transition performs one guarded state change. The status predicate makes
// the update a no-op if another transition won the race, a job can therefore
// reach a terminal state exactly once.
func (s *Store) transition(id string, from, to model.JobStatus, updates map[string]interface{}) error {
	updates["status"] = string(to)

	result := s.db.Model(&Job{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("job '%s' is not in state '%s'", id, from)
	}

	return nil
}

// MarkProcessing moves a pending job into processing
func (s *Store) MarkProcessing(id string) error {
	return s.transition(id, model.JobStatusPending, model.JobStatusProcessing, map[string]interface{}{})
}

// MarkCompleted moves a processing job into its terminal completed state
func (s *Store) MarkCompleted(id, filePath string, fileSize int64, recordCount int) error {
	now := time.Now()

	return s.transition(id, model.JobStatusProcessing, model.JobStatusCompleted, map[string]interface{}{
		"file_path":    filePath,
		"file_size":    fileSize,
		"record_count": recordCount,
		"completed_at": &now,
	})
}

// MarkFailed moves a processing job into its terminal failed state, the
// error message is captured verbatim
func (s *Store) MarkFailed(id, message string) error {
	now := time.Now()

	return s.transition(id, model.JobStatusProcessing, model.JobStatusFailed, map[string]interface{}{
		"error_message": message,
		"completed_at":  &now,
	})
}

// MarkAborted moves a pending job into its terminal failed state, used for
// jobs which never reached a worker
func (s *Store) MarkAborted(id, message string) error {
	now := time.Now()

	return s.transition(id, model.JobStatusPending, model.JobStatusFailed, map[string]interface{}{
		"error_message": message,
		"completed_at":  &now,
	})
}
