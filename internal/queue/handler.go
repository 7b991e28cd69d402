package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/OFFIS-RIT/twingraph/internal/storage"
	"github.com/OFFIS-RIT/twingraph/internal/util"
	"github.com/OFFIS-RIT/twingraph/pkg/extract"
	"github.com/OFFIS-RIT/twingraph/pkg/graph"
	"github.com/OFFIS-RIT/twingraph/pkg/leaselock"
	"github.com/OFFIS-RIT/twingraph/pkg/logger"
	"github.com/OFFIS-RIT/twingraph/pkg/store"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rabbitmq/amqp091-go"
)

// ExtractJobMsg asks a worker to extract uploaded packages into one batch.
type ExtractJobMsg struct {
	CorrelationID string   `json:"correlation_id"`
	BatchName     string   `json:"batch_name"`
	PackageKeys   []string `json:"package_keys"`
}

// ImportJobMsg asks a worker to import a previously exported batch file.
type ImportJobMsg struct {
	CorrelationID string `json:"correlation_id"`
	BatchKey      string `json:"batch_key"`
}

// ProcessExtract downloads the job's packages, extracts them into a graph
// batch, stores the batch file, and queues the import job.
func ProcessExtract(
	ctx context.Context,
	s3Client *s3.Client,
	engine *extract.Engine,
	ch *amqp091.Channel,
	msgBody string,
) error {
	var msg ExtractJobMsg
	if err := json.Unmarshal([]byte(msgBody), &msg); err != nil {
		return fmt.Errorf("failed to unmarshal extract job: %w", err)
	}
	if len(msg.PackageKeys) == 0 {
		logger.Warn("[Queue] Extract job without packages", "correlation_id", msg.CorrelationID)
		return nil
	}

	paths := make([]string, 0, len(msg.PackageKeys))
	for _, key := range msg.PackageKeys {
		path, cleanup, err := storage.DownloadPackage(ctx, s3Client, key)
		if err != nil {
			return fmt.Errorf("failed to download package %s: %w", key, err)
		}
		defer cleanup()
		paths = append(paths, path)
	}

	results, err := engine.ExtractAll(ctx, paths)
	if err != nil {
		return fmt.Errorf("failed to extract packages: %w", err)
	}

	batch, diags := graph.BuildBatch(msg.BatchName, results)
	for _, diag := range diags {
		logger.Warn("[Queue] Transform diagnostic", "correlation_id", msg.CorrelationID, "code", diag.Code, "message", diag.Message)
	}

	batchKey, err := storeBatchFile(ctx, s3Client, batch)
	if err != nil {
		return err
	}

	importMsg, err := json.Marshal(ImportJobMsg{
		CorrelationID: msg.CorrelationID,
		BatchKey:      batchKey,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal import job: %w", err)
	}
	err = util.RetryErr(3, func() error {
		return PublishFIFO(ch, ImportQueue, importMsg)
	})
	if err != nil {
		return fmt.Errorf("failed to queue import job: %w", err)
	}

	// The batch file now carries everything the import needs; the uploaded
	// packages are no longer referenced by anything.
	for _, key := range msg.PackageKeys {
		if err := storage.DeleteFile(ctx, s3Client, key); err != nil {
			logger.Warn("[Queue] Failed to delete processed package", "key", key, "err", err)
		}
	}

	logger.Info(
		"[Queue] Extraction complete",
		"correlation_id", msg.CorrelationID,
		"batch", batch.Name,
		"nodes", len(batch.Nodes),
		"edges", len(batch.Edges),
	)
	return nil
}

// ProcessImport loads the job's batch file and imports it under a lease so
// two workers never import the same batch concurrently. Batch files that
// fail validation are acknowledged and dropped; retrying cannot fix them.
func ProcessImport(
	ctx context.Context,
	s3Client *s3.Client,
	graphStore store.GraphStore,
	leases *leaselock.Client,
	msgBody string,
) error {
	var msg ImportJobMsg
	if err := json.Unmarshal([]byte(msgBody), &msg); err != nil {
		return fmt.Errorf("failed to unmarshal import job: %w", err)
	}

	path, cleanup, err := storage.DownloadPackage(ctx, s3Client, msg.BatchKey)
	if err != nil {
		return fmt.Errorf("failed to download batch %s: %w", msg.BatchKey, err)
	}
	defer cleanup()

	batch, err := graph.LoadBatchFile(path)
	if err != nil {
		var valErr *graph.ValidationError
		if errors.As(err, &valErr) {
			logger.Warn("[Queue] Dropping invalid batch", "correlation_id", msg.CorrelationID, "batch_key", msg.BatchKey, "reason", valErr.Reason)
			return nil
		}
		return fmt.Errorf("failed to load batch %s: %w", msg.BatchKey, err)
	}
	batch.Name = msg.BatchKey

	return leases.WithLease(ctx, "import:"+msg.BatchKey, leaselock.Options{}, func(ctx context.Context) error {
		stats, err := graphStore.ImportBatch(ctx, batch)
		if err != nil {
			return fmt.Errorf("failed to import batch %s: %w", msg.BatchKey, err)
		}
		if err := graphStore.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("failed to ensure indexes: %w", err)
		}

		logger.Info(
			"[Queue] Import complete",
			"correlation_id", msg.CorrelationID,
			"batch_key", msg.BatchKey,
			"nodes_created", stats.NodesCreated,
			"nodes_updated", stats.NodesUpdated,
			"edges_created", stats.EdgesCreated,
			"edges_updated", stats.EdgesUpdated,
		)
		return nil
	})
}

// NewCorrelationID generates the ID that ties a job's log lines together
// across the API and workers.
func NewCorrelationID() (string, error) {
	return gonanoid.New()
}

func storeBatchFile(ctx context.Context, s3Client *s3.Client, batch *graph.Batch) (string, error) {
	tmp, err := os.CreateTemp("", "twingraph-batch-*.graph.json")
	if err != nil {
		return "", fmt.Errorf("failed to create batch temp file: %w", err)
	}
	tmpName := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpName)

	if err := graph.WriteBatchFile(batch, tmpName); err != nil {
		return "", fmt.Errorf("failed to write batch file: %w", err)
	}

	file, err := os.Open(tmpName)
	if err != nil {
		return "", fmt.Errorf("failed to open batch file: %w", err)
	}
	defer file.Close()

	fileID, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	key, err := storage.PutFile(ctx, s3Client, "batches", "batch.graph.json", fileID, file)
	if err != nil {
		return "", fmt.Errorf("failed to upload batch file: %w", err)
	}
	return key, nil
}
