package runevents_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shellbook/shellbook/internal/runevents"
)

const (
	testScriptIdentifierConstant = "script-1"
	testRunIdentifierConstant    = "run-1"
	testCommandLineConstant      = "bash -c 'echo A'"
)

func TestEventTerminality(testInstance *testing.T) {
	exitCodeZero := 0

	testCases := []struct {
		name             string
		event            runevents.Event
		expectedTerminal bool
	}{
		{
			name:             "StartIsNotTerminal",
			event:            runevents.NewStartEvent(testScriptIdentifierConstant, testRunIdentifierConstant, testCommandLineConstant),
			expectedTerminal: false,
		},
		{
			name:             "StdoutIsNotTerminal",
			event:            runevents.NewStdoutEvent(testScriptIdentifierConstant, testRunIdentifierConstant, "chunk"),
			expectedTerminal: false,
		},
		{
			name:             "StderrIsNotTerminal",
			event:            runevents.NewStderrEvent(testScriptIdentifierConstant, testRunIdentifierConstant, "chunk"),
			expectedTerminal: false,
		},
		{
			name:             "ErrorIsTerminal",
			event:            runevents.NewErrorEvent(testScriptIdentifierConstant, testRunIdentifierConstant, "spawn refused"),
			expectedTerminal: true,
		},
		{
			name:             "EndIsTerminal",
			event:            runevents.NewEndEvent(testScriptIdentifierConstant, testRunIdentifierConstant, &exitCodeZero),
			expectedTerminal: true,
		},
		{
			name:             "KilledEndIsTerminal",
			event:            runevents.NewEndEvent(testScriptIdentifierConstant, testRunIdentifierConstant, nil),
			expectedTerminal: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedTerminal, testCase.event.IsTerminal())
		})
	}
}

func TestStreamEventWriterPublishesChunks(testInstance *testing.T) {
	collectingSink := runevents.NewCollectingSink()
	streamWriter := runevents.NewStreamEventWriter(collectingSink, runevents.KindStdout, testScriptIdentifierConstant, testRunIdentifierConstant)

	firstWriteCount, firstWriteError := streamWriter.Write([]byte("partial li"))
	secondWriteCount, secondWriteError := streamWriter.Write([]byte("ne\n"))
	emptyWriteCount, emptyWriteError := streamWriter.Write(nil)

	require.NoError(testInstance, firstWriteError)
	require.NoError(testInstance, secondWriteError)
	require.NoError(testInstance, emptyWriteError)
	require.Equal(testInstance, 10, firstWriteCount)
	require.Equal(testInstance, 3, secondWriteCount)
	require.Equal(testInstance, 0, emptyWriteCount)

	recordedEvents := collectingSink.Events()
	require.Len(testInstance, recordedEvents, 2)
	require.Equal(testInstance, runevents.KindStdout, recordedEvents[0].Kind)
	require.Equal(testInstance, "partial li", recordedEvents[0].Chunk)
	require.Equal(testInstance, "ne\n", recordedEvents[1].Chunk)
}

func TestFanoutSinkForwardsToAllDelegates(testInstance *testing.T) {
	firstSink := runevents.NewCollectingSink()
	secondSink := runevents.NewCollectingSink()
	fanoutSink := runevents.NewFanoutSink(firstSink, nil, secondSink)

	fanoutSink.Publish(runevents.NewStartEvent(testScriptIdentifierConstant, testRunIdentifierConstant, testCommandLineConstant))

	require.Len(testInstance, firstSink.Events(), 1)
	require.Len(testInstance, secondSink.Events(), 1)
}

func TestCollectingSinkFiltersByScript(testInstance *testing.T) {
	collectingSink := runevents.NewCollectingSink()
	collectingSink.Publish(runevents.NewStartEvent("script-a", "run-a", testCommandLineConstant))
	collectingSink.Publish(runevents.NewStartEvent("script-b", "run-b", testCommandLineConstant))
	collectingSink.Publish(runevents.NewEndEvent("script-a", "run-a", nil))

	scriptAEvents := collectingSink.EventsForScript("script-a")
	require.Len(testInstance, scriptAEvents, 2)
	require.Equal(testInstance, runevents.KindStart, scriptAEvents[0].Kind)
	require.Equal(testInstance, runevents.KindEnd, scriptAEvents[1].Kind)
}
