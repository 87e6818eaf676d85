package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"unitimetable/database"
	"unitimetable/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// LogArchiveService flushes Redis-cached activity logs into MySQL and
// periodically ships old rows to S3 as zip archives.
type LogArchiveService struct {
	redisClient *redis.Client
	awsConfig   aws.Config
	cron        *cron.Cron
}

// ArchivedLog is the row shape written into archive files.
type ArchivedLog struct {
	ID         uint           `json:"id"`
	UserID     uint           `json:"user_id"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	ResourceID uint           `json:"resource_id"`
	Details    map[string]any `json:"details,omitempty"`
	IPAddress  string         `json:"ip_address"`
	UserAgent  string         `json:"user_agent"`
	CreatedAt  time.Time      `json:"created_at"`
	Username   string         `json:"username,omitempty"`
	UserRole   string         `json:"user_role,omitempty"`
}

func NewLogArchiveService() *LogArchiveService {
	cfg, err := awscfg.LoadDefaultConfig(context.Background(), awscfg.WithRegion(os.Getenv("AWS_REGION")))
	if err != nil {
		logrus.WithError(err).Warn("AWS config unavailable, log archives stay local until configured")
	}

	return &LogArchiveService{
		redisClient: database.GetRedisClient(),
		awsConfig:   cfg,
	}
}

// FlushCachedLogs moves activity logs older than a day from the Redis
// write-behind queue into MySQL.
func (las *LogArchiveService) FlushCachedLogs() error {
	if las.redisClient == nil {
		return fmt.Errorf("redis client not available")
	}

	ctx := context.Background()
	cutoff := time.Now().Add(-24 * time.Hour)

	keys, err := las.redisClient.ZRangeByScore(ctx, "logs:queue", &redis.ZRangeBy{
		Min: "0",
		Max: fmt.Sprintf("%d", cutoff.Unix()),
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to read log queue: %w", err)
	}

	var flushed, failed int
	for _, key := range keys {
		payload, err := las.redisClient.Get(ctx, key).Result()
		if err != nil {
			if err != redis.Nil {
				logrus.WithError(err).WithField("key", key).Error("failed to read cached log")
				failed++
			}
			continue
		}

		var entry models.ActivityLog
		if err := json.Unmarshal([]byte(payload), &entry); err != nil {
			logrus.WithError(err).WithField("key", key).Error("cached log is not valid JSON")
			failed++
			continue
		}

		if err := database.DB.Create(&entry).Error; err != nil {
			logrus.WithError(err).Error("failed to persist cached log")
			failed++
			continue
		}

		pipe := las.redisClient.Pipeline()
		pipe.Del(ctx, key)
		pipe.ZRem(ctx, "logs:queue", key)
		if _, err := pipe.Exec(ctx); err != nil {
			logrus.WithError(err).WithField("key", key).Error("failed to evict flushed log")
		}
		flushed++
	}

	if flushed > 0 || failed > 0 {
		logrus.WithFields(logrus.Fields{"flushed": flushed, "failed": failed}).Info("activity log flush done")
	}
	return nil
}

// ArchiveOldLogs zips activity logs older than daysOld, uploads the zip to
// S3 and deletes the archived rows.
func (las *LogArchiveService) ArchiveOldLogs(daysOld int) error {
	if daysOld < 7 {
		return fmt.Errorf("minimum archive age is 7 days")
	}

	cutoff := time.Now().AddDate(0, 0, -daysOld)

	const batchSize = 1000
	var archived []ArchivedLog
	for offset := 0; ; offset += batchSize {
		var rows []models.ActivityLog
		err := database.DB.
			Preload("User").
			Where("created_at < ?", cutoff).
			Limit(batchSize).
			Offset(offset).
			Find(&rows).Error
		if err != nil {
			return fmt.Errorf("failed to fetch logs for archiving: %w", err)
		}
		if len(rows) == 0 {
			break
		}

		for _, row := range rows {
			entry := ArchivedLog{
				ID:         row.ID,
				UserID:     row.UserID,
				Action:     row.Action,
				Resource:   row.Resource,
				ResourceID: row.ResourceID,
				IPAddress:  row.IPAddress,
				UserAgent:  row.UserAgent,
				CreatedAt:  row.CreatedAt,
			}
			if !row.Details.IsNull() {
				var details map[string]any
				if err := json.Unmarshal(row.Details, &details); err == nil {
					entry.Details = details
				}
			}
			if row.User.ID > 0 {
				entry.Username = row.User.Username
				entry.UserRole = row.User.Role
			}
			archived = append(archived, entry)
		}
	}

	if len(archived) == 0 {
		return nil
	}
	logrus.WithField("count", len(archived)).Infof("archiving logs older than %s", cutoff.Format("2006-01-02"))

	fileName := fmt.Sprintf("activity_logs_%s.zip", cutoff.Format("2006-01-02"))
	buf, err := las.buildArchive(archived, fileName)
	if err != nil {
		return fmt.Errorf("failed to build archive: %w", err)
	}

	s3Key := fmt.Sprintf("logs/archived/%d/%02d/%s", cutoff.Year(), cutoff.Month(), fileName)
	if err := las.uploadToS3(s3Key, buf); err != nil {
		return fmt.Errorf("failed to upload archive: %w", err)
	}

	result := database.DB.Where("created_at < ?", cutoff).Delete(&models.ActivityLog{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete archived logs: %w", result.Error)
	}

	meta := models.LogArchive{
		FileName:    fileName,
		S3Key:       s3Key,
		StartDate:   archived[0].CreatedAt,
		EndDate:     cutoff,
		RecordCount: len(archived),
		FileSize:    int64(buf.Len()),
		Status:      "completed",
	}
	if err := database.DB.Create(&meta).Error; err != nil {
		logrus.WithError(err).Error("failed to record archive metadata")
	}
	return nil
}

// buildArchive writes the logs into a zip holding a JSON export, a CSV
// export and a metadata descriptor.
func (las *LogArchiveService) buildArchive(logs []ArchivedLog, fileName string) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	jsonFile, err := zw.Create("activity_logs.json")
	if err != nil {
		return nil, err
	}
	enc := json.NewEncoder(jsonFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]any{
		"export_date":    time.Now().UTC(),
		"record_count":   len(logs),
		"format_version": "1.0",
		"logs":           logs,
	}); err != nil {
		return nil, err
	}

	metaFile, err := zw.Create("metadata.json")
	if err != nil {
		return nil, err
	}
	if err := json.NewEncoder(metaFile).Encode(map[string]any{
		"file_name":    fileName,
		"created_at":   time.Now().UTC(),
		"record_count": len(logs),
		"date_range": map[string]any{
			"start": logs[0].CreatedAt,
			"end":   logs[len(logs)-1].CreatedAt,
		},
		"description": "Timetable activity log archive",
	}); err != nil {
		return nil, err
	}

	csvFile, err := zw.Create("activity_logs.csv")
	if err != nil {
		return nil, err
	}
	csvFile.Write([]byte("ID,User ID,Username,Role,Action,Resource,Resource ID,IP Address,Created At,Details\n"))
	for _, entry := range logs {
		details := ""
		if entry.Details != nil {
			if raw, err := json.Marshal(entry.Details); err == nil {
				details = strings.ReplaceAll(string(raw), `"`, `""`)
			}
		}
		line := fmt.Sprintf("%d,%d,%s,%s,%s,%s,%d,%s,%s,\"%s\"\n",
			entry.ID, entry.UserID, entry.Username, entry.UserRole,
			entry.Action, entry.Resource, entry.ResourceID,
			entry.IPAddress, entry.CreatedAt.Format("2006-01-02 15:04:05"), details)
		csvFile.Write([]byte(line))
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf, nil
}

func (las *LogArchiveService) uploadToS3(key string, data *bytes.Buffer) error {
	if las.awsConfig.Region == "" {
		return fmt.Errorf("AWS not configured")
	}

	client := s3.NewFromConfig(las.awsConfig)
	bucket := os.Getenv("S3_BUCKET_NAME")

	_, err := client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(data.Bytes()),
		ContentType: aws.String("application/zip"),
	})
	return err
}

func (las *LogArchiveService) downloadFromS3(key string) (io.ReadCloser, error) {
	if las.awsConfig.Region == "" {
		return nil, fmt.Errorf("AWS not configured")
	}

	client := s3.NewFromConfig(las.awsConfig)
	bucket := os.Getenv("S3_BUCKET_NAME")

	result, err := client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, err
	}
	return result.Body, nil
}

// ListArchives returns archive metadata, newest first.
func (las *LogArchiveService) ListArchives() ([]models.LogArchive, error) {
	var archives []models.LogArchive
	if err := database.DB.Order("created_at DESC").Find(&archives).Error; err != nil {
		return nil, err
	}
	return archives, nil
}

// DownloadArchive streams one archive back from S3.
func (las *LogArchiveService) DownloadArchive(archiveID uint) (io.ReadCloser, string, error) {
	var archive models.LogArchive
	if err := database.DB.First(&archive, archiveID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}

	reader, err := las.downloadFromS3(archive.S3Key)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download archive: %w", err)
	}
	return reader, archive.FileName, nil
}

// StartMaintenanceScheduler flushes cached logs hourly and archives
// month-old rows nightly.
func (las *LogArchiveService) StartMaintenanceScheduler() {
	if las.cron != nil {
		return
	}
	las.cron = cron.New()

	las.cron.AddFunc("@hourly", func() {
		if err := las.FlushCachedLogs(); err != nil {
			logrus.WithError(err).Warn("scheduled log flush failed")
		}
	})
	las.cron.AddFunc("0 3 * * *", func() {
		if err := las.ArchiveOldLogs(30); err != nil {
			logrus.WithError(err).Warn("scheduled log archive failed")
		}
	})

	las.cron.Start()
}

// StopMaintenanceScheduler stops the cron loop, waiting for running jobs.
func (las *LogArchiveService) StopMaintenanceScheduler() {
	if las.cron == nil {
		return
	}
	ctx := las.cron.Stop()
	<-ctx.Done()
	las.cron = nil
}
