package destination

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-place-recs/internal/types"
)

// MockAIClient is a mock implementation of generativeAI.Client
type MockAIClient struct {
	mock.Mock
}

func (m *MockAIClient) GenerateContent(ctx context.Context, model, prompt string, config *genai.GenerateContentConfig) (string, error) {
	args := m.Called(ctx, model, prompt, config)
	return args.String(0), args.Error(1)
}

// MockInteractionRepo is a mock implementation of interactions.Repository
type MockInteractionRepo struct {
	mock.Mock
}

func (m *MockInteractionRepo) SaveInteraction(ctx context.Context, interaction types.AssistantInteraction) (uuid.UUID, error) {
	args := m.Called(ctx, interaction)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

// Helper to setup service with mocks
func setupDestinationServiceTest() (*DestinationServiceImpl, *MockAIClient, *MockInteractionRepo) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	mockAI := new(MockAIClient)
	mockRepo := new(MockInteractionRepo)
	service := NewDestinationService(mockAI, mockRepo, logger)
	return service, mockAI, mockRepo
}

func TestDestinationServiceImpl_Verify(t *testing.T) {
	ctx := context.Background()
	sessionID := uuid.New()

	t.Run("valid destination", func(t *testing.T) {
		service, mockAI, mockRepo := setupDestinationServiceTest()

		response := `{"valid": true, "canonical_name": "Lisbon, Portugal", "suggestions": ["pasteis de nata", "miradouros", "fado"], "reason": "Lisbon is the capital of Portugal."}`
		mockAI.On("GenerateContent", mock.Anything, "gemini-2.0-flash", mock.Anything, mock.Anything).
			Return(response, nil).Once()
		mockRepo.On("SaveInteraction", mock.Anything, mock.AnythingOfType("types.AssistantInteraction")).
			Return(uuid.New(), nil).Once()

		check, err := service.Verify(ctx, sessionID, "lisbon")
		require.NoError(t, err)
		assert.True(t, check.Valid)
		assert.Equal(t, "lisbon", check.Destination) // exact input, not the corrected name
		assert.Equal(t, "Lisbon, Portugal", check.CanonicalName)
		assert.Len(t, check.Suggestions, 3)
		mockAI.AssertExpectations(t)
		mockRepo.AssertExpectations(t)
	})

	t.Run("invalid destination is an answer, not an error", func(t *testing.T) {
		service, mockAI, mockRepo := setupDestinationServiceTest()

		response := `{"valid": false, "canonical_name": "", "suggestions": [], "reason": "asdfgh does not name a known place."}`
		mockAI.On("GenerateContent", mock.Anything, "gemini-2.0-flash", mock.Anything, mock.Anything).
			Return(response, nil).Once()
		mockRepo.On("SaveInteraction", mock.Anything, mock.AnythingOfType("types.AssistantInteraction")).
			Return(uuid.New(), nil).Once()

		check, err := service.Verify(ctx, sessionID, "asdfgh")
		require.NoError(t, err)
		assert.False(t, check.Valid)
		assert.NotEmpty(t, check.Reason)
	})

	t.Run("upstream failure", func(t *testing.T) {
		service, mockAI, _ := setupDestinationServiceTest()

		mockAI.On("GenerateContent", mock.Anything, "gemini-2.0-flash", mock.Anything, mock.Anything).
			Return("", errors.New("backend unavailable")).Once()

		_, err := service.Verify(ctx, sessionID, "Lisbon")
		require.Error(t, err)
		assert.ErrorIs(t, err, types.ErrVerificationFailed)
		assert.Contains(t, err.Error(), "backend unavailable")
	})

	t.Run("unusable response", func(t *testing.T) {
		service, mockAI, mockRepo := setupDestinationServiceTest()

		mockAI.On("GenerateContent", mock.Anything, "gemini-2.0-flash", mock.Anything, mock.Anything).
			Return("sure, Lisbon sounds lovely", nil).Once()
		mockRepo.On("SaveInteraction", mock.Anything, mock.AnythingOfType("types.AssistantInteraction")).
			Return(uuid.New(), nil).Once()

		_, err := service.Verify(ctx, sessionID, "Lisbon")
		assert.ErrorIs(t, err, types.ErrVerificationFailed)
	})

	t.Run("concurrent identical checks share one upstream call", func(t *testing.T) {
		service, mockAI, mockRepo := setupDestinationServiceTest()

		release := make(chan struct{})
		mockAI.On("GenerateContent", mock.Anything, "gemini-2.0-flash", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { <-release }).
			Return(`{"valid": true, "canonical_name": "Porto, Portugal", "suggestions": ["port wine"], "reason": "ok"}`, nil).
			Once()
		mockRepo.On("SaveInteraction", mock.Anything, mock.AnythingOfType("types.AssistantInteraction")).
			Return(uuid.New(), nil).Once()

		var wg sync.WaitGroup
		checks := make([]types.DestinationCheck, 2)
		errs := make([]error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				checks[i], errs[i] = service.Verify(ctx, sessionID, "Porto")
			}(i)
		}
		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		for i := 0; i < 2; i++ {
			require.NoError(t, errs[i])
			assert.True(t, checks[i].Valid)
		}
		mockAI.AssertNumberOfCalls(t, "GenerateContent", 1)
	})
}
