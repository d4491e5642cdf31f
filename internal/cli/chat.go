package cli

import (
	"context"
	"fmt"
	"strings"

	"fluxcareer/internal/ai"
	"fluxcareer/internal/common"
	"fluxcareer/internal/errors"
	"fluxcareer/internal/types"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Refine a generated document through chat",
	Long: `Ask the AI editor to change a cover letter or tailored resume.
The reply is printed; when the editor rewrites the document the new version
is printed after it. Pass --session to continue a conversation. Sessions
outlive a single run only with the redis history backend.`,
	Args: cobra.MinimumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if _, ok := types.ParseDocumentType(chatDocType); !ok {
			return errors.NewValidationError(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("invalid document type '%s'. Allowed values: %s, %s",
					chatDocType, types.DocumentCoverLetter, types.DocumentTailoredResume), nil)
		}
		return outputPreRun(&chatConfig)(cmd, args)
	},
	RunE: runChat,
}

var (
	chatConfig    common.CommandConfig
	chatSelection ai.Selection
	chatSession   string
	chatDocument  string
	chatDocType   string
	chatJob       string
	chatResume    string
)

func init() {
	addOutputFlags(chatCmd, &chatConfig)
	addSelectionFlags(chatCmd, &chatSelection)
	chatCmd.Flags().StringVarP(&chatSession, "session", "s", "", "Session id to continue")
	chatCmd.Flags().StringVarP(&chatDocument, "document", "d", "", "File with the current document")
	chatCmd.Flags().StringVar(&chatDocType, "type", string(types.DocumentCoverLetter), "Document type: cover-letter or resume")
	chatCmd.Flags().StringVar(&chatJob, "job", "", "Job description file")
	chatCmd.Flags().StringVar(&chatResume, "resume", "", "Resume file")
}

func runChat(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	docType, _ := types.ParseDocumentType(chatDocType)
	message := strings.Join(args, " ")

	createInput := func(contents []string) (common.ChatTurnRequest, error) {
		return common.ChatTurnRequest{
			SessionID: chatSession,
			Message:   message,
			Context: types.ChatContext{
				CurrentDocument: contents[0],
				JobDescription:  contents[1],
				ResumeText:      contents[2],
				DocumentType:    docType,
			},
			Selection: chatSelection,
		}, nil
	}

	operation := func(ctx context.Context, req common.ChatTurnRequest) (types.ChatOutput, error) {
		return common.RunChatTurn(ctx, rt.service, rt.stores.Sessions, req, nil)
	}

	err = common.RunAICommand(cmd.Context(), rt.logger, chatConfig,
		[]string{chatDocument, chatJob, chatResume}, createInput, operation)
	if err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}
	return nil
}
