// Package wal is the write-ahead-log external collaborator of spec §6. It is
// implemented on top of a raft.LogStore (backed by raft-boltdb): not because
// this core runs Raft consensus, but because a LogStore is exactly the
// primitive spec §6 asks for — an ordered, durable, index-addressable append
// log with a BoltDB-backed implementation already in the dependency graph.
// The returned raft log index plays the role of an LSN.
package wal

import (
	"encoding/binary"
	"fmt"

	"github.com/hashicorp/raft"
	"github.com/relforge/relcore/pkg/metrics"
	"github.com/relforge/relcore/pkg/types"
)

// RecordTag identifies the shape of a WAL record, mirroring
// XLOG_SMGR_CREATE / XLOG_SMGR_TRUNCATE.
type RecordTag uint8

const (
	RecordSmgrCreate   RecordTag = 1
	RecordSmgrTruncate RecordTag = 2
)

// TruncateForkFlags is a bit mask over which forks participated in a
// smgr_truncate record.
type TruncateForkFlags uint8

const (
	FlagMain TruncateForkFlags = 1 << iota
	FlagFSM
	FlagVM
)

// LSN is a durable log sequence number; here, a raft log index.
type LSN uint64

// SmgrCreateRecord is the { file-id, fork-number } record of spec §6.
type SmgrCreateRecord struct {
	FileID types.RelationID
	Fork   types.Fork
}

// SmgrTruncateRecord is the { new-main-size, file-id, flags } record of spec
// §6.
type SmgrTruncateRecord struct {
	NewMainBlocks int64
	FileID        types.RelationID
	Flags         TruncateForkFlags
}

// Writer is the narrow WAL contract: begin_insert/register_data/insert/flush,
// specialized here to the two record shapes this core actually emits.
type Writer interface {
	InsertSmgrCreate(rec SmgrCreateRecord) (LSN, error)
	InsertSmgrTruncate(rec SmgrTruncateRecord) (LSN, error)
	Flush(lsn LSN) error
	// Replay decodes every stored record in order, oldest first, for crash
	// recovery / tests; real Postgres WAL replay is a background recovery
	// process, out of scope here, but end-to-end tests need some way to
	// observe "what got logged".
	Replay() ([]any, error)
}

// LogStoreWriter adapts a raft.LogStore (e.g. raft-boltdb's BoltStore) into
// Writer.
type LogStoreWriter struct {
	store raft.LogStore
}

// NewLogStoreWriter wraps an already-opened raft.LogStore.
func NewLogStoreWriter(store raft.LogStore) *LogStoreWriter {
	return &LogStoreWriter{store: store}
}

func (w *LogStoreWriter) nextIndex() (uint64, error) {
	last, err := w.store.LastIndex()
	if err != nil {
		return 0, fmt.Errorf("wal: last index: %w", err)
	}
	return last + 1, nil
}

func (w *LogStoreWriter) append(tag RecordTag, data []byte) (LSN, error) {
	idx, err := w.nextIndex()
	if err != nil {
		return 0, err
	}
	payload := append([]byte{byte(tag)}, data...)
	entry := &raft.Log{
		Index: idx,
		Term:  1,
		Type:  raft.LogCommand,
		Data:  payload,
	}
	if err := w.store.StoreLog(entry); err != nil {
		return 0, fmt.Errorf("wal: store log: %w", err)
	}
	return LSN(idx), nil
}

// InsertSmgrCreate registers and inserts a smgr_create record.
func (w *LogStoreWriter) InsertSmgrCreate(rec SmgrCreateRecord) (LSN, error) {
	buf := make([]byte, 5)
	binary.BigEndian.PutUint32(buf[0:4], uint32(rec.FileID))
	buf[4] = byte(rec.Fork)
	lsn, err := w.append(RecordSmgrCreate, buf)
	if err == nil {
		metrics.WALRecordsEmittedTotal.WithLabelValues("smgr_create").Inc()
	}
	return lsn, err
}

// InsertSmgrTruncate registers and inserts a smgr_truncate record.
func (w *LogStoreWriter) InsertSmgrTruncate(rec SmgrTruncateRecord) (LSN, error) {
	buf := make([]byte, 13)
	binary.BigEndian.PutUint32(buf[0:4], uint32(rec.NewMainBlocks))
	binary.BigEndian.PutUint32(buf[4:8], uint32(rec.FileID))
	buf[8] = byte(rec.Flags)
	lsn, err := w.append(RecordSmgrTruncate, buf)
	if err == nil {
		metrics.WALRecordsEmittedTotal.WithLabelValues("smgr_truncate").Inc()
	}
	return lsn, err
}

// Flush confirms the record at lsn is durably stored. raft-boltdb's
// StoreLog already commits a bbolt write transaction per call, so this is a
// presence check rather than an additional fsync.
func (w *LogStoreWriter) Flush(lsn LSN) error {
	var entry raft.Log
	if err := w.store.GetLog(uint64(lsn), &entry); err != nil {
		return fmt.Errorf("wal: flush: record at lsn %d not durable: %w", lsn, err)
	}
	return nil
}

// Replay decodes every record from FirstIndex to LastIndex in order.
func (w *LogStoreWriter) Replay() ([]any, error) {
	first, err := w.store.FirstIndex()
	if err != nil {
		return nil, fmt.Errorf("wal: first index: %w", err)
	}
	last, err := w.store.LastIndex()
	if err != nil {
		return nil, fmt.Errorf("wal: last index: %w", err)
	}
	var records []any
	for idx := first; idx <= last && last != 0; idx++ {
		var entry raft.Log
		if err := w.store.GetLog(idx, &entry); err != nil {
			continue
		}
		if len(entry.Data) == 0 {
			continue
		}
		tag := RecordTag(entry.Data[0])
		body := entry.Data[1:]
		switch tag {
		case RecordSmgrCreate:
			if len(body) < 5 {
				continue
			}
			records = append(records, SmgrCreateRecord{
				FileID: types.RelationID(binary.BigEndian.Uint32(body[0:4])),
				Fork:   types.Fork(body[4]),
			})
		case RecordSmgrTruncate:
			if len(body) < 9 {
				continue
			}
			records = append(records, SmgrTruncateRecord{
				NewMainBlocks: int64(binary.BigEndian.Uint32(body[0:4])),
				FileID:        types.RelationID(binary.BigEndian.Uint32(body[4:8])),
				Flags:         TruncateForkFlags(body[8]),
			})
		}
	}
	return records, nil
}
