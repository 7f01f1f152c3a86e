// Package influx records reconciliation pass statistics to InfluxDB, or to a
// gzipped line protocol file when the server cannot be reached.
package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"

	"github.com/ethria/headlamp/internal/config"
	"github.com/ethria/headlamp/internal/light"
)

// PassMeasurement is the measurement written once per reconciliation pass.
const PassMeasurement = "reconciliation_pass"

const (
	defaultBucket = "headlamp_performance"
	retention     = 30 * 24 * time.Hour
)

// ErrClosed is returned for writes after Close.
var ErrClosed = errors.New("influx: recorder closed")

type sink interface {
	write(p *write.Point) error
	close() error
}

// Recorder implements light.PassRecorder.
type Recorder struct {
	log    zerolog.Logger
	mu     sync.Mutex
	out    sink
	remote bool
}

var _ light.PassRecorder = (*Recorder)(nil)

// Open connects to the server in cfg. If it does not answer a ping, points
// are appended to backupPath instead.
func Open(cfg config.InfluxConfig, backupPath string, log zerolog.Logger) (*Recorder, error) {
	if !cfg.Enabled {
		return nil, errors.New("influx.enabled is false")
	}
	if cfg.Bucket == "" {
		cfg.Bucket = defaultBucket
	}

	url := fmt.Sprintf("%s://%s:%s", cfg.Protocol, cfg.Host, cfg.Port)
	client := influxdb2.NewClientWithOptions(url, cfg.Token,
		influxdb2.DefaultOptions().SetBatchSize(500).SetFlushInterval(1000))

	if ok, err := client.Ping(context.Background()); err != nil || !ok {
		client.Close()
		log.Warn().Err(err).Str("url", url).Str("backup", backupPath).Msg("InfluxDB unreachable, writing pass statistics to file")
		fs, ferr := openFileSink(backupPath)
		if ferr != nil {
			return nil, ferr
		}
		return &Recorder{log: log, out: fs}, nil
	}

	if err := ensureBucket(context.Background(), client, cfg.Org, cfg.Bucket, log); err != nil {
		client.Close()
		return nil, err
	}
	log.Info().Str("url", url).Str("bucket", cfg.Bucket).Msg("InfluxDB pass statistics enabled")
	return &Recorder{log: log, out: newRemoteSink(client, cfg.Org, cfg.Bucket, log), remote: true}, nil
}

// ensureBucket creates org and bucket when missing.
func ensureBucket(ctx context.Context, client influxdb2.Client, orgName, bucket string, log zerolog.Logger) error {
	orgs := client.OrganizationsAPI()
	org, err := orgs.FindOrganizationByName(ctx, orgName)
	if err != nil {
		log.Info().Str("org", orgName).Msg("Creating InfluxDB organization")
		if org, err = orgs.CreateOrganizationWithName(ctx, orgName); err != nil {
			return fmt.Errorf("create organization %s: %w", orgName, err)
		}
	}

	buckets := client.BucketsAPI()
	if _, err := buckets.FindBucketByName(ctx, bucket); err == nil {
		return nil
	}
	log.Info().Str("bucket", bucket).Msg("Creating InfluxDB bucket")
	expire := domain.RetentionRuleTypeExpire
	_, err = buckets.CreateBucketWithName(ctx, org, bucket, domain.RetentionRule{
		Type:         &expire,
		EverySeconds: int64(retention.Seconds()),
	})
	if err != nil {
		return fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	return nil
}

// Remote reports whether points go to the server rather than the backup file.
func (r *Recorder) Remote() bool {
	return r.remote
}

// PassPoint converts pass statistics into a point.
func PassPoint(stats light.PassStats) *write.Point {
	return influxdb2.NewPoint(PassMeasurement, nil, map[string]any{
		"actors":      stats.Actors,
		"placed":      stats.Placed,
		"cleared":     stats.Cleared,
		"untracked":   stats.Untracked,
		"failures":    stats.Failures,
		"tracked":     stats.Tracked,
		"duration_ms": float64(stats.Duration.Microseconds()) / 1000,
	}, stats.Time)
}

// Write sends one point.
func (r *Recorder) Write(p *write.Point) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.out == nil {
		return ErrClosed
	}
	return r.out.write(p)
}

// RecordPass writes one point per pass. Failures are logged only.
func (r *Recorder) RecordPass(stats light.PassStats) {
	if err := r.Write(PassPoint(stats)); err != nil {
		r.log.Warn().Err(err).Msg("Failed to record pass statistics")
	}
}

// Close flushes pending points. Later calls are no-ops.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.out == nil {
		return nil
	}
	err := r.out.close()
	r.out = nil
	return err
}

type remoteSink struct {
	client influxdb2.Client
	api    api.WriteAPI
}

func newRemoteSink(client influxdb2.Client, org, bucket string, log zerolog.Logger) *remoteSink {
	s := &remoteSink{client: client, api: client.WriteAPI(org, bucket)}
	go func() {
		for err := range s.api.Errors() {
			log.Error().Err(err).Str("bucket", bucket).Msg("InfluxDB write failed")
		}
	}()
	return s
}

func (s *remoteSink) write(p *write.Point) error {
	s.api.WritePoint(p)
	return nil
}

func (s *remoteSink) close() error {
	s.api.Flush()
	s.client.Close()
	return nil
}

type fileSink struct {
	f  *os.File
	gz *gzip.Writer
}

func openFileSink(path string) (*fileSink, error) {
	if path == "" {
		return nil, errors.New("influx: no backup path")
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open influx backup: %w", err)
	}
	return &fileSink{f: f, gz: gzip.NewWriter(f)}, nil
}

func (s *fileSink) write(p *write.Point) error {
	_, err := s.gz.Write([]byte(write.PointToLineProtocol(p, time.Nanosecond) + "\n"))
	return err
}

func (s *fileSink) close() error {
	return errors.Join(s.gz.Close(), s.f.Close())
}
