package flags_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shellbook/shellbook/internal/utils/flags"
)

func TestFormatChoiceUsage(testInstance *testing.T) {
	testCases := []struct {
		name          string
		defaultChoice string
		choices       []string
		description   string
		expectedUsage string
	}{
		{
			name:          "default_choice_capitalized",
			defaultChoice: "bash",
			choices:       []string{"powershell", "cmd", "bash", "sh"},
			description:   "interpreter used to run the script",
			expectedUsage: "`<powershell|cmd|BASH|sh>` interpreter used to run the script",
		},
		{
			name:          "empty_description_omits_trailer",
			defaultChoice: "sh",
			choices:       []string{"bash", "sh"},
			description:   "",
			expectedUsage: "`<bash|SH>`",
		},
		{
			name:          "duplicate_and_blank_choices_filtered",
			defaultChoice: "bash",
			choices:       []string{"bash", " ", "Bash", "sh"},
			description:   "shell",
			expectedUsage: "`<BASH|sh>` shell",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtestInstance *testing.T) {
			formattedUsage := flags.FormatChoiceUsage(testCase.defaultChoice, testCase.choices, testCase.description)
			require.Equal(subtestInstance, testCase.expectedUsage, formattedUsage)
		})
	}
}
