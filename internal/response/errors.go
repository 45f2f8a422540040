package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrEmailTaken         ErrCode = "EMAIL_ALREADY_REGISTERED"
	ErrSessionActive      ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrTeacherAccessOnly ErrCode = "TEACHER_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrConflict        ErrCode = "CONFLICT"
	ErrActionForbidden ErrCode = "ACTION_FORBIDDEN"

	// ─── Quiz / attempt ────────────────────────────────────────────────
	ErrQuizNotAvailable   ErrCode = "QUIZ_NOT_AVAILABLE"
	ErrQuizNotPublished   ErrCode = "QUIZ_NOT_PUBLISHED"
	ErrQuizNotDraft       ErrCode = "QUIZ_NOT_DRAFT"
	ErrNotQuizAuthor      ErrCode = "NOT_QUIZ_AUTHOR"
	ErrNoQuestions        ErrCode = "NO_QUESTIONS"
	ErrAttemptCompleted   ErrCode = "ATTEMPT_ALREADY_COMPLETED"
	ErrAttemptNotFound    ErrCode = "ATTEMPT_NOT_FOUND"
	ErrAttemptNotFinished ErrCode = "ATTEMPT_NOT_FINISHED"

	// ─── Generation ────────────────────────────────────────────────────
	ErrGenerationFailed    ErrCode = "GENERATION_FAILED"
	ErrSourceTooShort      ErrCode = "SOURCE_TEXT_TOO_SHORT"
	ErrMockSessionNotFound ErrCode = "MOCK_SESSION_NOT_FOUND"
	ErrMockResultNotReady  ErrCode = "MOCK_RESULT_NOT_READY"

	// ─── Media ─────────────────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Email or password is incorrect."
	case ErrEmailTaken:
		return "An account with this email already exists."
	case ErrSessionActive:
		return "You are already signed in on another device."
	case ErrSessionInvalidated:
		return "Your session has ended. Please sign in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrStudentAccessOnly:
		return "This resource is restricted to students."
	case ErrTeacherAccessOnly:
		return "This resource is restricted to teachers."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "The ID format is invalid."
	case ErrInvalidPayload:
		return "The request payload is invalid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "The resource was not found."
	case ErrConflict:
		return "The resource already exists."
	case ErrActionForbidden:
		return "This action is not allowed."

	// ─── Quiz / attempt ────────────────────────────────────────────────
	case ErrQuizNotAvailable:
		return "This quiz is not currently available."
	case ErrQuizNotPublished:
		return "This quiz has not been published."
	case ErrQuizNotDraft:
		return "This quiz is not in DRAFT status."
	case ErrNotQuizAuthor:
		return "You are not the author of this quiz."
	case ErrNoQuestions:
		return "This quiz has no questions."
	case ErrAttemptCompleted:
		return "You have already completed this quiz."
	case ErrAttemptNotFound:
		return "No attempt was found for this quiz."
	case ErrAttemptNotFinished:
		return "This attempt has not been submitted yet."

	// ─── Generation ────────────────────────────────────────────────────
	case ErrGenerationFailed:
		return "Question generation failed. Please try again."
	case ErrSourceTooShort:
		return "The source material is too short to generate questions from."
	case ErrMockSessionNotFound:
		return "The practice session was not found or has expired."
	case ErrMockResultNotReady:
		return "The practice session has not been submitted yet."

	// ─── Media ─────────────────────────────────────────────────────────
	case ErrFileRequired:
		return "A file upload is required."
	case ErrUnsupportedFile:
		return "The file type is not supported."
	case ErrFileTooLarge:
		return "The file size exceeds the limit."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
