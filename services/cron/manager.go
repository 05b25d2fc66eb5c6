package cron

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// staleUploadAge is how long a temp upload may sit in the data
// directory before the sweeper considers it orphaned. Extraction runs
// can legitimately take several minutes on large chapters.
const staleUploadAge = 2 * time.Hour

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron    *cron.Cron
	dataDir string
}

// NewCronManager creates a new cron manager
func NewCronManager(dataDir string) *CronManager {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	return &CronManager{
		cron:    c,
		dataDir: dataDir,
	}
}

// Start starts all cron jobs
func (m *CronManager) Start() error {
	log.Println("Starting cron jobs...")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	log.Println("Cron jobs started successfully")
	return nil
}

// Stop stops all cron jobs
func (m *CronManager) Stop() {
	log.Println("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Println("Cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	// Every 30 minutes: sweep orphaned temp uploads
	_, err := m.cron.AddFunc("0 */30 * * * *", func() {
		m.logJobStart("cleanup_stale_uploads")
		m.CleanupStaleUploads()
	})
	if err != nil {
		return err
	}

	log.Println("All cron jobs registered successfully")
	return nil
}

// CleanupStaleUploads removes temp upload copies that a crashed or
// interrupted request left behind. Requests clean up after themselves;
// anything old in the data directory is garbage.
func (m *CronManager) CleanupStaleUploads() {
	entries, err := os.ReadDir(m.dataDir)
	if err != nil {
		m.logJobError("cleanup_stale_uploads", err)
		return
	}

	cutoff := time.Now().Add(-staleUploadAge)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, "upload_") || !strings.HasSuffix(name, ".pdf") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(m.dataDir, name)
		if err := os.Remove(path); err != nil {
			log.Printf("[CRON] Failed to remove stale upload %s: %v", path, err)
			continue
		}
		removed++
	}

	m.logJobComplete("cleanup_stale_uploads", fmt.Sprintf("removed %d stale uploads", removed))
}

// logJobStart logs the start of a cron job
func (m *CronManager) logJobStart(jobName string) {
	log.Printf("[CRON] Starting job: %s at %s", jobName, time.Now().Format(time.RFC3339))
}

// logJobComplete logs successful completion of a cron job
func (m *CronManager) logJobComplete(jobName string, message string) {
	log.Printf("[CRON] Completed job: %s - %s", jobName, message)
}

// logJobError logs a cron job error
func (m *CronManager) logJobError(jobName string, err error) {
	log.Printf("[CRON] Error in job: %s - %v", jobName, err)
}
