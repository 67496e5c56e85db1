package cmd

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vortexlabs/vortex-chat/internal"
)

var (
	chatSessionID string
	chatAttach    []string
	chatLanguage  string
)

// chatCmd sends one message and streams the reply. With --session it
// continues an existing conversation; otherwise it starts a new one.
var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send a message and stream the reply",
	Long: `Send a message to the VORTEX model and stream the response.

The exchange is appended to a conversation archive. Without --session a new
conversation is created. Attachments are read from disk and embedded into the
message. If the response stream is interrupted, whatever arrived before the
interruption is kept as the model's (truncated) turn.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := ""
		if len(args) == 1 {
			text = args[0]
		}

		attachments, err := loadAttachments(chatAttach)
		if err != nil {
			return err
		}
		if text == "" && len(attachments) == 0 {
			return fmt.Errorf("nothing to send: provide a message or --attach")
		}

		storage, cfg, closeFn, err := openStorage()
		if err != nil {
			return err
		}
		defer closeFn()

		session, history, err := resolveSession(storage, chatSessionID, text)
		if err != nil {
			return err
		}

		lang, err := resolveLanguage(storage, chatLanguage)
		if err != nil {
			return err
		}
		profile, err := storage.GetLearningProfile()
		if err != nil {
			return err
		}

		persona := internal.GetPersonaConfig(session.Persona)
		model := persona.Model
		if cfg.ModelOverride != "" {
			model = cfg.ModelOverride
		}

		builder := internal.NewContextWindowBuilder(cfg.MaxHistoryTurns, cfg.HeadContext)
		req := &internal.ChatRequest{
			Model:             model,
			SystemInstruction: internal.ComposeSystemInstruction(persona, lang, profile),
			Temperature:       persona.Temperature,
			UseSearch:         persona.UseSearch,
			History:           internal.ToWire(builder.Slice(history)),
			Parts:             internal.BuildOutgoingParts(text, attachments),
		}

		userMsg := internal.NewMessage(internal.RoleUser, text, attachments)
		history = append(history, userMsg)

		client := internal.NewGeminiClient(cfg.APIKey, cfg.BaseURL)
		reply, streamErr := streamReply(cmd.Context(), client, req)

		cancelled := errors.Is(streamErr, context.Canceled)
		modelMsg := finalizeReply(reply, streamErr)
		if streamErr != nil && !cancelled {
			internal.PrintError(fmt.Sprintf("Stream failed: %v", streamErr))
		}
		history = append(history, modelMsg)

		if err := storage.SaveMessages(session.ID, history); err != nil {
			internal.PrintWarning("Latest messages could not be saved: storage is full")
			internal.LogError("Archive save failed for session %s: %v", session.ID, err)
		}

		session.Touch(history[len(history)-1])
		if err := storage.SaveSession(session); err != nil {
			internal.LogError("Directory update failed for session %s: %v", session.ID, err)
		}

		if cancelled {
			internal.PrintWarning("Response interrupted; partial reply saved")
			return nil
		}
		if streamErr != nil {
			return fmt.Errorf("response incomplete (session %s; resend to retry)", session.ID)
		}
		return nil
	},
}

// finalizeReply converts the streamed output into the model's archived turn.
// A user interruption keeps the partial text as a regular, if truncated, turn.
// Only genuine stream failures are flagged: flagged turns are excluded from
// future model context and offered for retry, which would be wrong for a
// deliberate cancellation.
func finalizeReply(reply streamedReply, streamErr error) internal.Message {
	msg := internal.NewMessage(internal.RoleModel, reply.content, nil)
	msg.GroundingSources = reply.sources
	if streamErr != nil && !errors.Is(streamErr, context.Canceled) {
		msg.IsError = true
		if msg.Content == "" {
			msg.Content = "[connection failed]"
		}
	}
	return msg
}

type streamedReply struct {
	content string
	sources []internal.GroundingSource
}

// streamReply consumes the model stream, echoing chunks to stdout. Partial
// content received before an interruption is returned as-is.
func streamReply(ctx context.Context, client internal.ModelClient, req *internal.ChatRequest) (streamedReply, error) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var reply streamedReply

	chunks, err := client.StreamMessage(ctx, req)
	if err != nil {
		return reply, err
	}

	for chunk := range chunks {
		if chunk.Err != nil {
			fmt.Println()
			return reply, chunk.Err
		}
		fmt.Print(chunk.Text)
		reply.content += chunk.Text
		reply.sources = append(reply.sources, chunk.GroundingSources...)
	}
	fmt.Println()

	if ctx.Err() != nil {
		// Cancelled mid-stream: keep what arrived, report the interruption.
		return reply, ctx.Err()
	}
	return reply, nil
}

// resolveSession loads the target conversation, creating a fresh one (titled
// from the first message) when no session id is given.
func resolveSession(storage *internal.StorageService, sessionID, text string) (*internal.ChatSession, []internal.Message, error) {
	if sessionID == "" {
		title := strings.TrimSpace(text)
		if len(title) > 40 {
			title = title[:40]
		}
		session := internal.NewSession(internal.PersonaVortexCore, title)
		return session, []internal.Message{}, nil
	}

	sessions, err := storage.Sessions()
	if err != nil {
		return nil, nil, err
	}
	for _, session := range sessions {
		if session.ID == sessionID {
			history, err := storage.Messages(sessionID)
			if err != nil {
				return nil, nil, err
			}
			return session, history, nil
		}
	}
	return nil, nil, fmt.Errorf("session not found: %s", sessionID)
}

func resolveLanguage(storage *internal.StorageService, override string) (internal.Language, error) {
	if override != "" {
		lang := internal.Language(override)
		if err := storage.SaveLanguage(lang); err != nil {
			return lang, err
		}
		return lang, nil
	}
	return storage.GetLanguage()
}

// loadAttachments reads files from disk into base64 attachment payloads.
func loadAttachments(paths []string) ([]internal.Attachment, error) {
	var attachments []internal.Attachment
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read attachment %s: %w", path, err)
		}
		mimeType := mime.TypeByExtension(filepath.Ext(path))
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		attachments = append(attachments, internal.Attachment{
			MimeType:   mimeType,
			Data:       base64.StdEncoding.EncodeToString(data),
			PreviewURI: "file://" + path,
		})
	}
	return attachments, nil
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVarP(&chatSessionID, "session", "s", "", "Continue an existing conversation")
	chatCmd.Flags().StringArrayVarP(&chatAttach, "attach", "a", nil, "Attach a file (repeatable)")
	chatCmd.Flags().StringVarP(&chatLanguage, "lang", "l", "", "Response language (pt-PT or en-US)")
}
