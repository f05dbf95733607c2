package fixed

import (
	"math"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/outofforest/fixedstore/freelist"
	"github.com/outofforest/fixedstore/persistence"
	"github.com/outofforest/fixedstore/pkg/filedev"
	"github.com/outofforest/fixedstore/records"
)

// DeleteSuffix is appended to the name of the data file to get the name of its free-list stack file.
const DeleteSuffix = "_delete.rd"

// Config stores configuration of the store.
type Config struct {
	// BlockCapacity is the number of payload bytes available in each block.
	BlockCapacity uint64

	// SyncWrites causes data to be synced before each commit point.
	SyncWrites bool

	// Metrics collects store metrics, nil disables metrics.
	Metrics *Metrics

	// Logger is used for logging, if nil default one is used.
	Logger *logrus.Entry
}

// Store allocates fixed-capacity blocks inside the data file. Freed blocks are kept in the paired free-list stack
// and reused before data file grows.
//
// Data file is a sequence of blocks, each made of block header followed by BlockCapacity bytes of payload.
//
// Store is not safe for concurrent use.
type Store struct {
	fileID  string
	config  Config
	log     *logrus.Entry
	lengths records.Lengths

	data  persistence.Dev
	stack *freelist.Stack

	// blockSize is the size of the block including its header.
	blockSize uint64
	closed    bool

	// live contains blocks allocated during lifetime of the store, to detect double allocation and double free.
	live map[uint64]*Block
}

// Open opens the store kept in dir. Data file is named after name, free-list stack file is named by appending
// DeleteSuffix to it. Files are created if they don't exist.
func Open(dir, name string, config Config) (*Store, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	dataPath := filepath.Join(dir, name)
	data, err := filedev.Open(dataPath)
	if err != nil {
		return nil, err
	}
	if err := data.Lock(); err != nil {
		_ = data.Close()
		return nil, err
	}

	stack, err := freelist.OpenFile(filepath.Join(dir, name+DeleteSuffix), freelist.Config{
		SyncWrites: config.SyncWrites,
		Logger:     config.Logger,
	})
	if err != nil {
		_ = data.Close()
		return nil, err
	}

	s, err := New(data, stack, name, config)
	if err != nil {
		_ = stack.Close()
		_ = data.Close()
		return nil, errors.WithMessagef(err, "opening store %s failed", dataPath)
	}

	s.log.WithField("path", dataPath).Info("Store opened")
	return s, nil
}

// New creates store using provided data device and free-list stack. Block capacity of the store is stored
// in the stack, so the store can't be reopened with different capacity.
func New(data persistence.Dev, stack *freelist.Stack, fileID string, config Config) (*Store, error) {
	if err := validateName(fileID); err != nil {
		return nil, err
	}

	lengths := records.ComputeLengths()
	if config.BlockCapacity == 0 {
		return nil, errors.New("block capacity must be greater than 0")
	}
	if config.BlockCapacity > math.MaxInt64-lengths.BlockHeader {
		return nil, errors.Errorf("block capacity %d is too large", config.BlockCapacity)
	}

	log := config.Logger
	if log == nil {
		log = logrus.WithField("module", "fixed")
	}

	s := &Store{
		fileID:    fileID,
		config:    config,
		log:       log.WithField("table", fileID),
		lengths:   lengths,
		data:      data,
		stack:     stack,
		blockSize: lengths.BlockHeader + config.BlockCapacity,
		live:      map[uint64]*Block{},
	}

	if err := s.prepareDataFile(); err != nil {
		return nil, err
	}

	return s, nil
}

// FileID returns the ID of the data file stored in descriptors.
func (s *Store) FileID() string {
	return s.fileID
}

// BlockCapacity returns the payload capacity of each block.
func (s *Store) BlockCapacity() uint64 {
	return s.config.BlockCapacity
}

// Lengths returns the lengths of records used by the store.
func (s *Store) Lengths() records.Lengths {
	return s.lengths
}

// Stats describes the state of the store.
type Stats struct {
	BlockCapacity uint64
	BlockSize     uint64
	DataFileSize  uint64
	TotalBlocks   uint64
	FreeBlocks    uint64
	FreeListTop   uint64
}

// Stats returns stats of the store.
func (s *Store) Stats() (Stats, error) {
	if s.closed {
		return Stats{}, errors.WithStack(ErrClosed)
	}

	size, err := persistence.Size(s.data)
	if err != nil {
		return Stats{}, err
	}

	var freeBlocks uint64
	if err := s.stack.Walk(func(_ uint64, _ records.Descriptor) bool {
		freeBlocks++
		return true
	}); err != nil {
		return Stats{}, err
	}

	return Stats{
		BlockCapacity: s.config.BlockCapacity,
		BlockSize:     s.blockSize,
		DataFileSize:  size,
		TotalBlocks:   size / s.blockSize,
		FreeBlocks:    freeBlocks,
		FreeListTop:   s.stack.Top(),
	}, nil
}

// Sync forces data to be written to the devices.
func (s *Store) Sync() error {
	if s.closed {
		return errors.WithStack(ErrClosed)
	}
	if err := s.data.Sync(); err != nil {
		return err
	}
	return s.stack.Sync()
}

// Close closes both files. Blocks can't be used afterwards.
func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.live = nil

	stackErr := s.stack.Close()
	if err := s.data.Close(); err != nil {
		return err
	}
	return stackErr
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return errors.Errorf("invalid file name: %q", name)
	}
	return nil
}
