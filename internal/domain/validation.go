package domain

import "time"

// ConflictType machine-readable kind of a validation conflict
type ConflictType string

// Rule conflicts: expected, user-facing outcomes of validation
const (
	ConflictInvalidServiceType         ConflictType = "INVALID_SERVICE_TYPE"
	ConflictDailyLimitExceeded         ConflictType = "DAILY_LIMIT_EXCEEDED"
	ConflictDayNotAllowed              ConflictType = "DAY_NOT_ALLOWED"
	ConflictAdvanceTimeViolation       ConflictType = "ADVANCE_TIME_VIOLATION"
	ConflictSlotNotAvailable           ConflictType = "SLOT_NOT_AVAILABLE"
	ConflictOverlappingAppointment     ConflictType = "OVERLAPPING_APPOINTMENT"
	ConflictExclusiveService           ConflictType = "EXCLUSIVE_SERVICE_CONFLICT"
	ConflictTooManyPending             ConflictType = "TOO_MANY_PENDING"
	ConflictCustomerSameDay            ConflictType = "CUSTOMER_SAME_DAY_CONFLICT"
	ConflictTooManyRecentCancellations ConflictType = "TOO_MANY_RECENT_CANCELLATIONS"
)

// Infrastructure failures: retryable, never a booking rejection by rule
const (
	ConflictValidationError       ConflictType = "VALIDATION_ERROR"
	ConflictDailyLimitCheckError  ConflictType = "DAILY_LIMIT_CHECK_ERROR"
	ConflictAvailabilityCheckErr  ConflictType = "AVAILABILITY_CHECK_ERROR"
	ConflictOverlapCheckError     ConflictType = "OVERLAP_CHECK_ERROR"
	ConflictExclusivityCheckError ConflictType = "EXCLUSIVITY_CHECK_ERROR"
	ConflictCustomerCheckError    ConflictType = "CUSTOMER_CHECK_ERROR"
)

// IsInfrastructure returns true for conflict kinds produced by repository failures
func (t ConflictType) IsInfrastructure() bool {
	switch t {
	case ConflictValidationError,
		ConflictDailyLimitCheckError,
		ConflictAvailabilityCheckErr,
		ConflictOverlapCheckError,
		ConflictExclusivityCheckError,
		ConflictCustomerCheckError:
		return true
	default:
		return false
	}
}

// Conflict a single validation conflict with kind-specific details
type Conflict struct {
	Type    ConflictType
	Message string

	// Retryable true для инфраструктурных ошибок (повтор запроса может пройти)
	Retryable bool

	CurrentCount *int
	MaxAllowed   *int
	AllowedDays  []time.Weekday
	Appointments []*Appointment
}

// SuggestionKind тип предложенной альтернативы
type SuggestionKind string

const (
	SuggestionDate     SuggestionKind = "date"
	SuggestionTimeSlot SuggestionKind = "time_slot"
)

// Suggestion an alternative start instant proposed after a conflict
type Suggestion struct {
	Kind   SuggestionKind
	Start  time.Time
	Reason ConflictType // тип конфликта, для которого предложена альтернатива
}

// WarningType kind of a non-blocking advisory
type WarningType string

const (
	WarningShortNotice      WarningType = "SHORT_NOTICE"
	WarningBusyDay          WarningType = "BUSY_DAY"
	WarningRequiresApproval WarningType = "REQUIRES_APPROVAL"
)

// Warning a non-blocking advisory attached to a validation result
type Warning struct {
	Type    WarningType
	Message string
}

// ValidationRequest candidate appointment to validate
type ValidationRequest struct {
	ServiceTypeID        int64
	ScheduledDate        time.Time
	DurationMinutes      int // 0 = длительность услуги по умолчанию
	CustomerID           int64
	ExcludeAppointmentID *int64 // при редактировании существующей записи
}

// ValidationResult outcome of validating a candidate appointment
type ValidationResult struct {
	IsValid     bool
	Conflicts   []Conflict
	Suggestions []Suggestion
	Warnings    []Warning
}

// NewValidationResult creates an empty valid result
func NewValidationResult() *ValidationResult {
	return &ValidationResult{
		IsValid:     true,
		Conflicts:   make([]Conflict, 0),
		Suggestions: make([]Suggestion, 0),
		Warnings:    make([]Warning, 0),
	}
}

// AddConflict appends a conflict and marks the result invalid
func (r *ValidationResult) AddConflict(c Conflict) {
	if c.Type.IsInfrastructure() {
		c.Retryable = true
	}
	r.Conflicts = append(r.Conflicts, c)
	r.IsValid = false
}

// AddSuggestions appends suggestions produced for the given conflict type
func (r *ValidationResult) AddSuggestions(s ...Suggestion) {
	r.Suggestions = append(r.Suggestions, s...)
}

// AddWarning appends a non-blocking warning
func (r *ValidationResult) AddWarning(w Warning) {
	r.Warnings = append(r.Warnings, w)
}

// HasConflict returns true if a conflict of the given type is present
func (r *ValidationResult) HasConflict(t ConflictType) bool {
	for _, c := range r.Conflicts {
		if c.Type == t {
			return true
		}
	}
	return false
}

// ConflictTypes returns conflict kinds in emission order
func (r *ValidationResult) ConflictTypes() []string {
	result := make([]string, len(r.Conflicts))
	for i, c := range r.Conflicts {
		result[i] = string(c.Type)
	}
	return result
}

// OnlyInfrastructureFailures returns true if the result is invalid solely because of retryable failures
func (r *ValidationResult) OnlyInfrastructureFailures() bool {
	if r.IsValid {
		return false
	}
	for _, c := range r.Conflicts {
		if !c.Retryable {
			return false
		}
	}
	return true
}
