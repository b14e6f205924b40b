package provisioner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"don-provisioner/internal/config"
	"don-provisioner/internal/jobspec"
	"don-provisioner/internal/labels"
	"don-provisioner/internal/state"
	"don-provisioner/internal/types"
)

// ErrNoAPIs is returned when a stream config names no upstream bridges. The
// fault-tolerance derivation needs at least one datasource.
var ErrNoAPIs = errors.New("stream config has no APIs")

// JobStore persists generated job specs for the fleet-management layer.
// Lookups of individual records happen in that layer, not here.
type JobStore interface {
	SaveJob(ctx context.Context, record *state.StreamJobRecord) error
	DeleteJob(ctx context.Context, streamID uint32) error
	ListJobs(ctx context.Context) ([]*state.StreamJobRecord, error)
	TouchJob(ctx context.Context, streamID uint32) error
}

type Manager struct {
	config   *config.Config
	store    JobStore
	registry *jobspec.Registry
	logger   *zap.Logger
	donLabel string
	jobs     map[uint32]*JobInfo
	mutex    sync.RWMutex
}

type JobInfo struct {
	StreamID      uint32
	StreamType    jobspec.StreamType
	ExternalJobID uuid.UUID
	Provisioned   time.Time
}

func NewManager(cfg *config.Config, store JobStore, registry *jobspec.Registry, logger *zap.Logger) *Manager {
	return &Manager{
		config:   cfg,
		store:    store,
		registry: registry,
		logger:   logger,
		donLabel: labels.EncodeDonLabel(cfg.Don.ID, cfg.Don.Name),
		jobs:     make(map[uint32]*JobInfo),
	}
}

func (m *Manager) ProvisionStream(ctx context.Context, event types.StreamEvent) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	streamID := event.StreamID

	if _, exists := m.jobs[streamID]; exists {
		m.logger.Warn("Stream already provisioned", zap.Uint32("stream_id", streamID))
		return nil
	}

	return m.provision(ctx, event, uuid.Nil)
}

func (m *Manager) UpdateStream(ctx context.Context, event types.StreamEvent) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	// Re-generate under the external job ID assigned at first provisioning
	// so node operators keep a stable job identity across updates.
	externalJobID := uuid.Nil
	if info, exists := m.jobs[event.StreamID]; exists {
		externalJobID = info.ExternalJobID
	} else {
		m.logger.Warn("Update for unknown stream, provisioning from scratch",
			zap.Uint32("stream_id", event.StreamID))
	}

	return m.provision(ctx, event, externalJobID)
}

// provision generates and persists the job spec for one stream event. The
// caller must hold the write lock.
func (m *Manager) provision(ctx context.Context, event types.StreamEvent, externalJobID uuid.UUID) error {
	streamID := event.StreamID

	ssc := event.Spec
	// The event's stream_id is authoritative for routing and storage.
	ssc.StreamID = streamID

	if len(ssc.APIs) == 0 {
		return fmt.Errorf("%w: stream %d", ErrNoAPIs, streamID)
	}

	generator, err := m.registry.Generator(event.StreamType)
	if err != nil {
		return fmt.Errorf("failed to resolve generator: %w", err)
	}

	spec, err := generator.GenerateJobSpec(ssc, externalJobID)
	if err != nil {
		return fmt.Errorf("failed to generate job spec: %w", err)
	}

	specJSON, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("failed to marshal job spec: %w", err)
	}

	now := time.Now()
	record := &state.StreamJobRecord{
		StreamID:      streamID,
		StreamLabel:   labels.EncodeStreamLabel(streamID),
		DonLabel:      m.donLabel,
		ExternalJobID: spec.ExternalJobID.String(),
		StreamType:    string(event.StreamType),
		JobName:       spec.Name,
		SpecJSON:      string(specJSON),
		CreatedAt:     now,
		UpdatedAt:     now,
		LastSynced:    now,
	}
	if info, exists := m.jobs[streamID]; exists {
		record.CreatedAt = info.Provisioned
	}

	if err := m.store.SaveJob(ctx, record); err != nil {
		return fmt.Errorf("failed to save job record: %w", err)
	}

	m.jobs[streamID] = &JobInfo{
		StreamID:      streamID,
		StreamType:    event.StreamType,
		ExternalJobID: spec.ExternalJobID,
		Provisioned:   record.CreatedAt,
	}

	m.logger.Info("Provisioned stream job",
		zap.Uint32("stream_id", streamID),
		zap.String("stream_label", record.StreamLabel),
		zap.String("don_label", m.donLabel),
		zap.String("external_job_id", record.ExternalJobID),
		zap.String("job_name", spec.Name),
	)

	return nil
}

func (m *Manager) DeprovisionStream(ctx context.Context, streamID uint32) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.jobs[streamID]; !exists {
		m.logger.Warn("Stream not provisioned", zap.Uint32("stream_id", streamID))
		return nil
	}

	// Delete the record before forgetting the stream so a failed store call
	// leaves the stream provisioned and the event retryable.
	if err := m.store.DeleteJob(ctx, streamID); err != nil {
		return fmt.Errorf("failed to delete job record: %w", err)
	}

	delete(m.jobs, streamID)

	m.logger.Info("Deprovisioned stream job", zap.Uint32("stream_id", streamID))

	return nil
}

// RestoreJobs rebuilds the in-memory view from the job store after startup.
func (m *Manager) RestoreJobs(ctx context.Context) error {
	records, err := m.store.ListJobs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list job records: %w", err)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, record := range records {
		externalJobID, err := uuid.Parse(record.ExternalJobID)
		if err != nil {
			m.logger.Error("Skipping record with invalid external job ID",
				zap.Error(err),
				zap.Uint32("stream_id", record.StreamID))
			continue
		}

		m.jobs[record.StreamID] = &JobInfo{
			StreamID:      record.StreamID,
			StreamType:    jobspec.StreamType(record.StreamType),
			ExternalJobID: externalJobID,
			Provisioned:   record.CreatedAt,
		}
	}

	m.logger.Info("Restored provisioned streams", zap.Int("count", len(m.jobs)))

	return nil
}

// Jobs returns a snapshot of the currently provisioned streams.
func (m *Manager) Jobs() []JobInfo {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	jobs := make([]JobInfo, 0, len(m.jobs))
	for _, info := range m.jobs {
		jobs = append(jobs, *info)
	}
	return jobs
}

func (m *Manager) StartSyncMonitor(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.syncHeartbeats(ctx)
		}
	}
}

func (m *Manager) syncHeartbeats(ctx context.Context) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for streamID := range m.jobs {
		if err := m.store.TouchJob(ctx, streamID); err != nil {
			m.logger.Error("Failed to touch job record",
				zap.Error(err),
				zap.Uint32("stream_id", streamID))
		}
	}
}
