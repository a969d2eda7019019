package image

import (
	"io"
	"os"
	"sync"
)

// Storage defines the interface for image backing stores.
// Implementations provide random-access byte storage that can be released
// and reacquired without losing their identity.
type Storage interface {
	// ReadAt reads len(p) bytes starting at byte offset off.
	ReadAt(p []byte, off int64) (int, error)

	// WriteAt writes p starting at byte offset off.
	WriteAt(p []byte, off int64) (int, error)

	// Size returns the size of the store in bytes.
	Size() int64

	// Sync flushes any cached writes to the medium.
	Sync() error

	// Open reacquires the store after Close and rewinds it.
	// Opening an open store only rewinds it.
	Open() error

	// Close releases the store. I/O fails until the next Open.
	Close() error

	// IsOpen returns true if the store can currently serve I/O.
	IsOpen() bool
}

// MemoryStorage implements Storage using an in-memory buffer.
type MemoryStorage struct {
	data  []byte
	open  bool
	mutex sync.RWMutex
}

// NewMemoryStorage creates an open in-memory store of the given size.
func NewMemoryStorage(size int64) *MemoryStorage {
	return &MemoryStorage{
		data: make([]byte, size),
		open: true,
	}
}

// NewMemoryStorageFrom creates an open in-memory store holding a copy of data.
func NewMemoryStorageFrom(data []byte) *MemoryStorage {
	m := NewMemoryStorage(int64(len(data)))
	copy(m.data, data)
	return m
}

// ReadAt reads from memory.
func (m *MemoryStorage) ReadAt(p []byte, off int64) (int, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if !m.open {
		return 0, os.ErrClosed
	}
	if off < 0 || off >= int64(len(m.data)) {
		return 0, io.EOF
	}

	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt writes to memory. Writes never grow the store.
func (m *MemoryStorage) WriteAt(p []byte, off int64) (int, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if !m.open {
		return 0, os.ErrClosed
	}
	if off < 0 || off+int64(len(p)) > int64(len(m.data)) {
		return 0, io.ErrShortWrite
	}

	return copy(m.data[off:], p), nil
}

// Size returns the buffer length.
func (m *MemoryStorage) Size() int64 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return int64(len(m.data))
}

// Sync is a no-op for memory storage.
func (m *MemoryStorage) Sync() error {
	return nil
}

// Open marks the store open.
func (m *MemoryStorage) Open() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.open = true
	return nil
}

// Close marks the store closed. The contents are kept.
func (m *MemoryStorage) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.open = false
	return nil
}

// IsOpen returns whether the store is open.
func (m *MemoryStorage) IsOpen() bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.open
}

// Bytes returns a copy of the current contents.
func (m *MemoryStorage) Bytes() []byte {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out
}

// FileStorage implements Storage using a file on the host.
type FileStorage struct {
	path     string
	file     *os.File
	size     int64
	readOnly bool
	mutex    sync.RWMutex
}

// NewFileStorage opens file-backed storage.
// If readOnly is true, the file is opened in read-only mode.
func NewFileStorage(path string, readOnly bool) (*FileStorage, error) {
	f := &FileStorage{
		path:     path,
		readOnly: readOnly,
	}
	if err := f.Open(); err != nil {
		return nil, err
	}
	return f, nil
}

// Path returns the host path of the backing file.
func (f *FileStorage) Path() string {
	return f.path
}

// ReadAt reads from the file.
func (f *FileStorage) ReadAt(p []byte, off int64) (int, error) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	if f.file == nil {
		return 0, os.ErrClosed
	}
	return f.file.ReadAt(p, off)
}

// WriteAt writes to the file.
func (f *FileStorage) WriteAt(p []byte, off int64) (int, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.file == nil {
		return 0, os.ErrClosed
	}
	if f.readOnly {
		return 0, os.ErrPermission
	}
	return f.file.WriteAt(p, off)
}

// Size returns the file size observed when the file was last opened.
func (f *FileStorage) Size() int64 {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	return f.size
}

// Sync flushes file writes to disk.
func (f *FileStorage) Sync() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.file == nil || f.readOnly {
		return nil
	}
	return f.file.Sync()
}

// Open opens the file if it is closed, otherwise rewinds it.
func (f *FileStorage) Open() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.file != nil {
		_, err := f.file.Seek(0, io.SeekStart)
		return err
	}

	flags := os.O_RDWR
	if f.readOnly {
		flags = os.O_RDONLY
	}

	file, err := os.OpenFile(f.path, flags, 0)
	if err != nil {
		return err
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return err
	}

	f.file = file
	f.size = stat.Size()
	return nil
}

// Close closes the underlying file.
func (f *FileStorage) Close() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.file != nil {
		err := f.file.Close()
		f.file = nil
		return err
	}
	return nil
}

// IsOpen returns whether the file is open.
func (f *FileStorage) IsOpen() bool {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	return f.file != nil
}

// Compile-time interface checks
var (
	_ Storage = (*MemoryStorage)(nil)
	_ Storage = (*FileStorage)(nil)
)
