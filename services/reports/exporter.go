package reports

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"almanara_go/config"
	"almanara_go/database"
	"almanara_go/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// AcademyAPI is the slice of the upstream client the exporter uses.
type AcademyAPI interface {
	Payments(ctx context.Context) ([]models.Payment, error)
}

// Exporter builds the admin payments report as an xlsx workbook and
// archives a copy to S3.
type Exporter struct {
	api       AcademyAPI
	awsConfig aws.Config
}

func NewExporter(api AcademyAPI) *Exporter {
	cfg, err := awscfg.LoadDefaultConfig(context.Background(), awscfg.WithRegion(config.AppConfig.AWSRegion))
	if err != nil {
		logrus.WithError(err).Warn("Failed to load AWS config; report archiving will fail until configured")
	}
	return &Exporter{api: api, awsConfig: cfg}
}

var paymentsHeader = []string{
	"Payment ID", "Student Email", "Course", "Method", "Account Number",
	"Transaction Number", "Amount", "Currency", "Preferred Time", "Status", "Submitted",
}

// PaymentsWorkbook fetches all payments and renders them as a workbook.
func (e *Exporter) PaymentsWorkbook(ctx context.Context) (*bytes.Buffer, int, error) {
	payments, err := e.api.Payments(ctx)
	if err != nil {
		return nil, 0, err
	}
	buf, err := BuildPaymentsWorkbook(payments)
	if err != nil {
		return nil, 0, err
	}
	return buf, len(payments), nil
}

// BuildPaymentsWorkbook renders payment rows into an xlsx buffer.
func BuildPaymentsWorkbook(payments []models.Payment) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Payments"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	for i, h := range paymentsHeader {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	for row, p := range payments {
		values := []interface{}{
			p.ID, p.Email, p.CourseName, p.Method, p.AccountNumber,
			p.TransactionNum, p.Amount, p.Currency, p.WantedTime,
			string(models.PaymentStatusFromWire(p.Status)), p.CreatedAt,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	return f.WriteToBuffer()
}

// ArchivePayments builds the workbook and uploads it to S3, recording the
// outcome locally. Run nightly by the scheduler.
func (e *Exporter) ArchivePayments(ctx context.Context) error {
	buf, count, err := e.PaymentsWorkbook(ctx)
	if err != nil {
		return fmt.Errorf("build payments workbook: %w", err)
	}

	fileName := fmt.Sprintf("payments_%s.xlsx", time.Now().Format("2006-01-02"))
	s3Key := "reports/" + fileName

	archive := models.ReportArchive{
		FileName:    fileName,
		S3Key:       s3Key,
		RecordCount: count,
		FileSize:    int64(buf.Len()),
		Status:      "pending",
	}
	if db := database.GetDB(); db != nil {
		if err := db.Create(&archive).Error; err != nil {
			logrus.WithError(err).Error("Failed to record report archive")
		}
	}

	if err := e.uploadToS3(ctx, s3Key, buf); err != nil {
		e.markArchive(&archive, "failed", err.Error())
		return fmt.Errorf("upload report to S3: %w", err)
	}

	e.markArchive(&archive, "completed", "")
	logrus.Infof("Archived payments report to S3: %s (%d rows)", s3Key, count)
	return nil
}

func (e *Exporter) uploadToS3(ctx context.Context, key string, data *bytes.Buffer) error {
	if e.awsConfig.Region == "" {
		return fmt.Errorf("AWS not configured")
	}

	s3Client := s3.NewFromConfig(e.awsConfig)
	bucket := config.AppConfig.S3BucketName

	_, err := s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(data.Bytes()),
		ContentType: aws.String("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"),
	})
	return err
}

func (e *Exporter) markArchive(archive *models.ReportArchive, status, errMsg string) {
	db := database.GetDB()
	if db == nil || archive.ID == 0 {
		return
	}
	if err := db.Model(archive).Updates(map[string]interface{}{
		"status": status,
		"error":  errMsg,
	}).Error; err != nil {
		logrus.WithError(err).Error("Failed to update report archive status")
	}
}
