package writer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	parquetwriter "github.com/xitongsys/parquet-go/writer"

	appconfig "optionflow/config"
	"optionflow/logger"
	"optionflow/models"
)

// ParquetRecord is the on-disk row shape of an archived chain record.
// Nullable numerics stay optional so an absent value archives as null,
// not zero.
type ParquetRecord struct {
	Session      string   `parquet:"name=session, type=BYTE_ARRAY, convertedtype=UTF8"`
	Asset        string   `parquet:"name=asset, type=BYTE_ARRAY, convertedtype=UTF8"`
	Symbol       string   `parquet:"name=symbol, type=BYTE_ARRAY, convertedtype=UTF8"`
	OptionType   string   `parquet:"name=option_type, type=BYTE_ARRAY, convertedtype=UTF8"`
	Strike       float64  `parquet:"name=strike, type=DOUBLE"`
	ExpiryDate   string   `parquet:"name=expiry_date, type=BYTE_ARRAY, convertedtype=UTF8"`
	ExpiryMs     int64    `parquet:"name=expiry_ms, type=INT64"`
	FetchedAtMs  int64    `parquet:"name=fetched_at_ms, type=INT64"`
	MarkPrice    *float64 `parquet:"name=mark_price, type=DOUBLE, repetitiontype=OPTIONAL"`
	SpotPrice    *float64 `parquet:"name=spot_price, type=DOUBLE, repetitiontype=OPTIONAL"`
	BidPrice     *float64 `parquet:"name=bid_price, type=DOUBLE, repetitiontype=OPTIONAL"`
	AskPrice     *float64 `parquet:"name=ask_price, type=DOUBLE, repetitiontype=OPTIONAL"`
	BidIV        *float64 `parquet:"name=bid_iv, type=DOUBLE, repetitiontype=OPTIONAL"`
	AskIV        *float64 `parquet:"name=ask_iv, type=DOUBLE, repetitiontype=OPTIONAL"`
	OpenInterest *float64 `parquet:"name=open_interest, type=DOUBLE, repetitiontype=OPTIONAL"`
	Volume       *float64 `parquet:"name=volume, type=DOUBLE, repetitiontype=OPTIONAL"`
	Delta        *float64 `parquet:"name=delta, type=DOUBLE, repetitiontype=OPTIONAL"`
	Gamma        *float64 `parquet:"name=gamma, type=DOUBLE, repetitiontype=OPTIONAL"`
	Theta        *float64 `parquet:"name=theta, type=DOUBLE, repetitiontype=OPTIONAL"`
	Vega         *float64 `parquet:"name=vega, type=DOUBLE, repetitiontype=OPTIONAL"`
}

// memoryFileWriter implements the ParquetFile interface for in-memory writing.
type memoryFileWriter struct {
	buffer *bytes.Buffer
}

func newMemoryFileWriter() *memoryFileWriter {
	return &memoryFileWriter{buffer: &bytes.Buffer{}}
}

func (mfw *memoryFileWriter) Create(name string) (source.ParquetFile, error) { return mfw, nil }
func (mfw *memoryFileWriter) Open(name string) (source.ParquetFile, error)  { return mfw, nil }

func (mfw *memoryFileWriter) Seek(offset int64, whence int) (int64, error) {
	return int64(mfw.buffer.Len()), nil
}

func (mfw *memoryFileWriter) Read(b []byte) (int, error)  { return mfw.buffer.Read(b) }
func (mfw *memoryFileWriter) Write(b []byte) (int, error) { return mfw.buffer.Write(b) }
func (mfw *memoryFileWriter) Close() error                { return nil }
func (mfw *memoryFileWriter) Bytes() []byte               { return mfw.buffer.Bytes() }

// ChainArchiver persists each fetch run's normalized records as one
// parquet file per asset, locally and/or to S3. Archival is best
// effort: a failure is logged by the caller and never affects the
// fetch result.
type ChainArchiver struct {
	cfg      appconfig.ArchiveConfig
	s3Client *s3.Client
	log      *logger.Log
	now      func() time.Time
}

// NewChainArchiver builds an archiver from configuration. When the
// archive feature is disabled the returned archiver is nil. The S3
// client is only constructed when S3 archival is enabled.
func NewChainArchiver(cfg appconfig.ArchiveConfig) (*ChainArchiver, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	archiver := &ChainArchiver{
		cfg: cfg,
		log: logger.GetLogger(),
		now: time.Now,
	}

	if cfg.S3.Enabled {
		ctx := context.Background()
		loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3.Region)}
		if cfg.S3.AccessKeyID != "" && cfg.S3.SecretAccessKey != "" {
			loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, ""),
			))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}
		archiver.s3Client = s3.NewFromConfig(awsCfg)
	}

	return archiver, nil
}

// Archive writes one asset's records from one fetch run.
func (a *ChainArchiver) Archive(session, asset string, records []models.OptionRecord) error {
	if len(records) == 0 {
		return nil
	}

	data, err := a.encode(session, asset, records)
	if err != nil {
		return fmt.Errorf("encode parquet: %w", err)
	}

	name := a.objectName(asset)

	if a.cfg.Dir != "" {
		if err := a.writeLocal(name, data); err != nil {
			return err
		}
	}
	if a.s3Client != nil {
		if err := a.upload(context.Background(), name, data); err != nil {
			return err
		}
	}

	a.log.WithComponent("archiver").WithFields(logger.Fields{
		"asset":   asset,
		"records": len(records),
		"object":  name,
		"bytes":   len(data),
	}).Debug("chain archived")

	return nil
}

func (a *ChainArchiver) encode(session, asset string, records []models.OptionRecord) ([]byte, error) {
	mfw := newMemoryFileWriter()
	pw, err := parquetwriter.NewParquetWriter(mfw, new(ParquetRecord), 1)
	if err != nil {
		return nil, err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	fetchedAt := a.now().UnixMilli()
	for _, rec := range records {
		row := ParquetRecord{
			Session:      session,
			Asset:        asset,
			Symbol:       rec.Symbol,
			OptionType:   string(rec.OptionType),
			Strike:       rec.Strike,
			ExpiryDate:   rec.ExpiryDate,
			ExpiryMs:     rec.ExpiryMs,
			FetchedAtMs:  fetchedAt,
			MarkPrice:    rec.MarkPrice,
			SpotPrice:    rec.SpotPrice,
			BidPrice:     rec.BidPrice,
			AskPrice:     rec.AskPrice,
			BidIV:        rec.BidIV,
			AskIV:        rec.AskIV,
			OpenInterest: rec.OpenInterest,
			Volume:       rec.Volume,
			Delta:        rec.Delta,
			Gamma:        rec.Gamma,
			Theta:        rec.Theta,
			Vega:         rec.Vega,
		}
		if err := pw.Write(row); err != nil {
			return nil, err
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, err
	}
	return mfw.Bytes(), nil
}

// objectName partitions archives by date and asset, one file per run.
func (a *ChainArchiver) objectName(asset string) string {
	ts := a.now().UTC()
	return fmt.Sprintf("%s/%s/chain-%s-%s.parquet",
		ts.Format("2006-01-02"), asset, ts.Format("150405"), uuid.NewString()[:8])
}

func (a *ChainArchiver) writeLocal(name string, data []byte) error {
	path := filepath.Join(a.cfg.Dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write archive file: %w", err)
	}
	return nil
}

func (a *ChainArchiver) upload(ctx context.Context, name string, data []byte) error {
	key := name
	if prefix := strings.Trim(a.cfg.S3.Prefix, "/"); prefix != "" {
		key = prefix + "/" + name
	}

	_, err := a.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.cfg.S3.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("upload archive to s3: %w", err)
	}
	return nil
}
