package scripts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	recordNotFoundMessageConstant       = "script record not found"
	duplicateNameMessageConstant        = "another script already uses the name"
	catalogPathEmptyMessageConstant     = "catalog path must not be empty"
	fileSystemNotConfiguredMessage      = "file system not configured"
	recordNotFoundTemplateConstant      = "%w: %s"
	duplicateNameTemplateConstant       = "%w: %s"
	catalogReadErrorTemplateConstant    = "unable to read script catalog: %w"
	catalogDecodeErrorTemplateConstant  = "unable to decode script catalog: %w"
	catalogEncodeErrorTemplateConstant  = "unable to encode script catalog: %w"
	catalogWriteErrorTemplateConstant   = "unable to write script catalog: %w"
	catalogDirectoryPermissionsConstant = 0o755
	catalogFilePermissionsConstant      = 0o644

	defaultCatalogDirectoryNameConstant = "shellbook"
	defaultCatalogFileNameConstant      = "scripts.yaml"
)

// Store errors reported to callers.
var (
	// ErrRecordNotFound indicates no record exists for the requested identifier or name.
	ErrRecordNotFound = errors.New(recordNotFoundMessageConstant)
	// ErrDuplicateName indicates a save would violate name uniqueness.
	ErrDuplicateName = errors.New(duplicateNameMessageConstant)
	// ErrCatalogPathEmpty indicates the store was constructed without a catalog path.
	ErrCatalogPathEmpty = errors.New(catalogPathEmptyMessageConstant)
	// ErrFileSystemNotConfigured indicates the store was constructed without a file system.
	ErrFileSystemNotConfigured = errors.New(fileSystemNotConfiguredMessage)
)

// Store exposes read and write access to persisted script records.
type Store interface {
	// Get returns the record with the given identifier.
	Get(recordIdentifier string) (Record, error)
	// FindByName returns the record with the given unique name.
	FindByName(recordName string) (Record, error)
	// List returns every record ordered by name.
	List() ([]Record, error)
	// Save inserts or updates a record, minting an identifier when absent.
	Save(candidateRecord Record) (Record, error)
	// Remove deletes the record with the given identifier.
	Remove(recordIdentifier string) error
}

// catalogDocument is the serialized shape of the catalog file.
type catalogDocument struct {
	Scripts []Record `yaml:"scripts"`
}

// CatalogStore persists records in a single YAML catalog file.
type CatalogStore struct {
	fileSystem  afero.Fs
	catalogPath string
	mutex       sync.Mutex
}

var _ Store = (*CatalogStore)(nil)

// NewCatalogStore constructs a store reading and writing the catalog at catalogPath.
func NewCatalogStore(fileSystem afero.Fs, catalogPath string) (*CatalogStore, error) {
	if fileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	if len(strings.TrimSpace(catalogPath)) == 0 {
		return nil, ErrCatalogPathEmpty
	}
	return &CatalogStore{fileSystem: fileSystem, catalogPath: catalogPath}, nil
}

// DefaultCatalogPath computes the conventional catalog location inside the
// user configuration directory.
func DefaultCatalogPath() (string, error) {
	configurationDirectory, lookupError := os.UserConfigDir()
	if lookupError != nil {
		return "", lookupError
	}
	return filepath.Join(configurationDirectory, defaultCatalogDirectoryNameConstant, defaultCatalogFileNameConstant), nil
}

// Get implements Store by looking up a record by identifier.
func (store *CatalogStore) Get(recordIdentifier string) (Record, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	catalog, loadError := store.loadCatalog()
	if loadError != nil {
		return Record{}, loadError
	}
	for _, persistedRecord := range catalog.Scripts {
		if persistedRecord.Identifier == recordIdentifier {
			return persistedRecord, nil
		}
	}
	return Record{}, fmt.Errorf(recordNotFoundTemplateConstant, ErrRecordNotFound, recordIdentifier)
}

// FindByName implements Store by looking up a record by its unique name.
func (store *CatalogStore) FindByName(recordName string) (Record, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	catalog, loadError := store.loadCatalog()
	if loadError != nil {
		return Record{}, loadError
	}
	for _, persistedRecord := range catalog.Scripts {
		if persistedRecord.Name == recordName {
			return persistedRecord, nil
		}
	}
	return Record{}, fmt.Errorf(recordNotFoundTemplateConstant, ErrRecordNotFound, recordName)
}

// List implements Store by returning all records ordered by name.
func (store *CatalogStore) List() ([]Record, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	catalog, loadError := store.loadCatalog()
	if loadError != nil {
		return nil, loadError
	}
	listedRecords := make([]Record, len(catalog.Scripts))
	copy(listedRecords, catalog.Scripts)
	sort.Slice(listedRecords, func(firstIndex int, secondIndex int) bool {
		return listedRecords[firstIndex].Name < listedRecords[secondIndex].Name
	})
	return listedRecords, nil
}

// Save implements Store by inserting or updating the record while enforcing
// name uniqueness across distinct identifiers.
func (store *CatalogStore) Save(candidateRecord Record) (Record, error) {
	if validationError := candidateRecord.Validate(); validationError != nil {
		return Record{}, validationError
	}

	store.mutex.Lock()
	defer store.mutex.Unlock()

	catalog, loadError := store.loadCatalog()
	if loadError != nil {
		return Record{}, loadError
	}

	if len(candidateRecord.Identifier) == 0 {
		candidateRecord.Identifier = uuid.NewString()
	}

	for _, persistedRecord := range catalog.Scripts {
		if persistedRecord.Name == candidateRecord.Name && persistedRecord.Identifier != candidateRecord.Identifier {
			return Record{}, fmt.Errorf(duplicateNameTemplateConstant, ErrDuplicateName, candidateRecord.Name)
		}
	}

	recordReplaced := false
	for recordIndex, persistedRecord := range catalog.Scripts {
		if persistedRecord.Identifier == candidateRecord.Identifier {
			catalog.Scripts[recordIndex] = candidateRecord
			recordReplaced = true
			break
		}
	}
	if !recordReplaced {
		catalog.Scripts = append(catalog.Scripts, candidateRecord)
	}

	if persistError := store.persistCatalog(catalog); persistError != nil {
		return Record{}, persistError
	}
	return candidateRecord, nil
}

// Remove implements Store by deleting the record with the given identifier.
func (store *CatalogStore) Remove(recordIdentifier string) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	catalog, loadError := store.loadCatalog()
	if loadError != nil {
		return loadError
	}

	remainingRecords := make([]Record, 0, len(catalog.Scripts))
	recordRemoved := false
	for _, persistedRecord := range catalog.Scripts {
		if persistedRecord.Identifier == recordIdentifier {
			recordRemoved = true
			continue
		}
		remainingRecords = append(remainingRecords, persistedRecord)
	}
	if !recordRemoved {
		return fmt.Errorf(recordNotFoundTemplateConstant, ErrRecordNotFound, recordIdentifier)
	}

	catalog.Scripts = remainingRecords
	return store.persistCatalog(catalog)
}

func (store *CatalogStore) loadCatalog() (catalogDocument, error) {
	catalogBytes, readError := afero.ReadFile(store.fileSystem, store.catalogPath)
	if readError != nil {
		if os.IsNotExist(readError) {
			return catalogDocument{}, nil
		}
		return catalogDocument{}, fmt.Errorf(catalogReadErrorTemplateConstant, readError)
	}

	catalog := catalogDocument{}
	if decodeError := yaml.Unmarshal(catalogBytes, &catalog); decodeError != nil {
		return catalogDocument{}, fmt.Errorf(catalogDecodeErrorTemplateConstant, decodeError)
	}
	return catalog, nil
}

func (store *CatalogStore) persistCatalog(catalog catalogDocument) error {
	encodedCatalog, encodeError := yaml.Marshal(catalog)
	if encodeError != nil {
		return fmt.Errorf(catalogEncodeErrorTemplateConstant, encodeError)
	}

	catalogDirectory := filepath.Dir(store.catalogPath)
	if directoryError := store.fileSystem.MkdirAll(catalogDirectory, catalogDirectoryPermissionsConstant); directoryError != nil {
		return fmt.Errorf(catalogWriteErrorTemplateConstant, directoryError)
	}

	if writeError := afero.WriteFile(store.fileSystem, store.catalogPath, encodedCatalog, catalogFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(catalogWriteErrorTemplateConstant, writeError)
	}
	return nil
}
