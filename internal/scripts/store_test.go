package scripts_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/shellbook/shellbook/internal/scripts"
	"github.com/shellbook/shellbook/internal/shellplan"
)

const (
	testCatalogPathConstant   = "config/shellbook/scripts.yaml"
	testScriptNameConstant    = "deploy"
	testScriptContentConstant = "echo deploying"
)

func newTestStore(testInstance *testing.T) *scripts.CatalogStore {
	testInstance.Helper()
	catalogStore, creationError := scripts.NewCatalogStore(afero.NewMemMapFs(), testCatalogPathConstant)
	require.NoError(testInstance, creationError)
	return catalogStore
}

func newTestRecord(recordName string) scripts.Record {
	return scripts.Record{
		Name:    recordName,
		Shell:   shellplan.ShellKindBash,
		Content: testScriptContentConstant,
	}
}

func TestNewCatalogStoreValidation(testInstance *testing.T) {
	testCases := []struct {
		name          string
		fileSystem    afero.Fs
		catalogPath   string
		expectedError error
	}{
		{
			name:          "MissingFileSystem",
			catalogPath:   testCatalogPathConstant,
			expectedError: scripts.ErrFileSystemNotConfigured,
		},
		{
			name:          "BlankCatalogPath",
			fileSystem:    afero.NewMemMapFs(),
			catalogPath:   "  ",
			expectedError: scripts.ErrCatalogPathEmpty,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			_, creationError := scripts.NewCatalogStore(testCase.fileSystem, testCase.catalogPath)
			require.ErrorIs(testInstance, creationError, testCase.expectedError)
		})
	}
}

func TestSaveMintsIdentifierAndRoundTrips(testInstance *testing.T) {
	catalogStore := newTestStore(testInstance)

	savedRecord, saveError := catalogStore.Save(newTestRecord(testScriptNameConstant))
	require.NoError(testInstance, saveError)
	require.NotEmpty(testInstance, savedRecord.Identifier)

	loadedRecord, getError := catalogStore.Get(savedRecord.Identifier)
	require.NoError(testInstance, getError)
	require.Equal(testInstance, savedRecord, loadedRecord)

	namedRecord, findError := catalogStore.FindByName(testScriptNameConstant)
	require.NoError(testInstance, findError)
	require.Equal(testInstance, savedRecord, namedRecord)
}

func TestSaveEnforcesNameUniqueness(testInstance *testing.T) {
	catalogStore := newTestStore(testInstance)

	_, firstSaveError := catalogStore.Save(newTestRecord(testScriptNameConstant))
	require.NoError(testInstance, firstSaveError)

	_, duplicateSaveError := catalogStore.Save(newTestRecord(testScriptNameConstant))
	require.ErrorIs(testInstance, duplicateSaveError, scripts.ErrDuplicateName)
}

func TestSaveUpdatesExistingRecordInPlace(testInstance *testing.T) {
	catalogStore := newTestStore(testInstance)

	savedRecord, saveError := catalogStore.Save(newTestRecord(testScriptNameConstant))
	require.NoError(testInstance, saveError)

	savedRecord.Content = "echo updated"
	updatedRecord, updateError := catalogStore.Save(savedRecord)
	require.NoError(testInstance, updateError)
	require.Equal(testInstance, savedRecord.Identifier, updatedRecord.Identifier)

	listedRecords, listError := catalogStore.List()
	require.NoError(testInstance, listError)
	require.Len(testInstance, listedRecords, 1)
	require.Equal(testInstance, "echo updated", listedRecords[0].Content)
}

func TestSaveValidatesRecordFields(testInstance *testing.T) {
	testCases := []struct {
		name            string
		candidateRecord scripts.Record
		expectedError   error
	}{
		{
			name:            "BlankName",
			candidateRecord: scripts.Record{Name: " ", Shell: shellplan.ShellKindBash, Content: testScriptContentConstant},
			expectedError:   scripts.ErrRecordNameEmpty,
		},
		{
			name:            "EmptyContent",
			candidateRecord: scripts.Record{Name: testScriptNameConstant, Shell: shellplan.ShellKindBash},
			expectedError:   scripts.ErrRecordContentEmpty,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			catalogStore := newTestStore(testInstance)
			_, saveError := catalogStore.Save(testCase.candidateRecord)
			require.ErrorIs(testInstance, saveError, testCase.expectedError)
		})
	}
}

func TestSaveRejectsUnknownShellKind(testInstance *testing.T) {
	catalogStore := newTestStore(testInstance)
	invalidRecord := scripts.Record{Name: testScriptNameConstant, Shell: shellplan.ShellKind("zsh"), Content: testScriptContentConstant}

	_, saveError := catalogStore.Save(invalidRecord)
	require.Error(testInstance, saveError)
}

func TestListOrdersRecordsByName(testInstance *testing.T) {
	catalogStore := newTestStore(testInstance)
	for _, recordName := range []string{"cleanup", "archive", "build"} {
		_, saveError := catalogStore.Save(newTestRecord(recordName))
		require.NoError(testInstance, saveError)
	}

	listedRecords, listError := catalogStore.List()
	require.NoError(testInstance, listError)
	require.Len(testInstance, listedRecords, 3)
	require.Equal(testInstance, "archive", listedRecords[0].Name)
	require.Equal(testInstance, "build", listedRecords[1].Name)
	require.Equal(testInstance, "cleanup", listedRecords[2].Name)
}

func TestRemoveDeletesRecord(testInstance *testing.T) {
	catalogStore := newTestStore(testInstance)
	savedRecord, saveError := catalogStore.Save(newTestRecord(testScriptNameConstant))
	require.NoError(testInstance, saveError)

	require.NoError(testInstance, catalogStore.Remove(savedRecord.Identifier))

	_, getError := catalogStore.Get(savedRecord.Identifier)
	require.ErrorIs(testInstance, getError, scripts.ErrRecordNotFound)
	require.ErrorIs(testInstance, catalogStore.Remove(savedRecord.Identifier), scripts.ErrRecordNotFound)
}

func TestEmptyCatalogBehaviors(testInstance *testing.T) {
	catalogStore := newTestStore(testInstance)

	listedRecords, listError := catalogStore.List()
	require.NoError(testInstance, listError)
	require.Empty(testInstance, listedRecords)

	_, getError := catalogStore.Get("missing")
	require.ErrorIs(testInstance, getError, scripts.ErrRecordNotFound)
}
