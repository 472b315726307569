package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stripe/stripe-go/v79"

	"github.com/coursehub/coursehub/internal/middleware"
	"github.com/coursehub/coursehub/internal/model"
	"github.com/coursehub/coursehub/internal/payment"
	"github.com/coursehub/coursehub/internal/queue"
	"github.com/coursehub/coursehub/internal/repository"
	queue_publisher "github.com/coursehub/coursehub/internal/service"
)

// Metadata keys attached to every payment intent. The webhook relies on
// them to tie the asynchronous outcome back to a course and student.
const (
	metaCourseID    = "course_id"
	metaStudentID   = "student_id"
	metaCourseTitle = "course_title"
)

// PaymentHandler orchestrates the purchase flow: intent creation on behalf
// of the buyer and webhook reconciliation of the processor's outcome.
type PaymentHandler struct {
	Courses      CourseStore
	Enrollments  EnrollmentStore
	Payments     PaymentStore
	Intents      payment.IntentCreator
	Webhook      payment.EventVerifier
	PublishEvent func(ctx context.Context, e queue.EnrollmentActivatedEvent) error
}

func NewPaymentHandler(courses CourseStore, enrollments EnrollmentStore, payments PaymentStore,
	intents payment.IntentCreator, webhook payment.EventVerifier) *PaymentHandler {
	return &PaymentHandler{
		Courses:      courses,
		Enrollments:  enrollments,
		Payments:     payments,
		Intents:      intents,
		Webhook:      webhook,
		PublishEvent: queue_publisher.PublishEnrollmentActivated,
	}
}

type createIntentReq struct {
	CourseID uint64 `json:"courseId"`
}

// CreateIntent handles POST /v1/payments/create-intent. The route policy
// already guarantees an authenticated, verified caller. All validation
// happens before the processor is contacted or any row is written.
func (h *PaymentHandler) CreateIntent(c echo.Context) error {
	user, ok := middleware.UserFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createIntentReq
	if err := c.Bind(&req); err != nil || req.CourseID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "courseId required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	course, err := h.Courses.GetByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if course.Status != model.CourseStatusPublished {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
	}
	if course.InstructorID == user.ID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot enroll in your own course"})
	}
	enrolled, err := h.Enrollments.HasActiveOrCompleted(ctx, user.ID, course.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if enrolled {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "already enrolled"})
	}

	amount := course.EffectivePriceCents()
	if amount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "course is free, use the enroll endpoint"})
	}

	intent, err := h.Intents.CreateIntent(ctx, amount, "usd", map[string]string{
		metaCourseID:    strconv.FormatUint(course.ID, 10),
		metaStudentID:   strconv.FormatUint(user.ID, 10),
		metaCourseTitle: course.Title,
	})
	if err != nil {
		c.Logger().Errorf("payment: intent creation failed: %v", err)
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment processor unavailable"})
	}

	fee, instructorAmount := payment.SplitFee(amount)
	p := model.Payment{
		UserID:                user.ID,
		CourseID:              course.ID,
		StripePaymentIntentID: intent.ID,
		AmountCents:           amount,
		PlatformFeeCents:      fee,
		InstructorAmountCents: instructorAmount,
	}
	if err := h.Payments.CreatePending(ctx, &p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save payment failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"clientSecret": intent.ClientSecret,
		"paymentId":    p.ID,
		"amount":       float64(amount) / 100,
	})
}

// HandleWebhook handles POST /v1/payments/webhook. The body must be read
// raw before any binding: signature verification runs over the exact bytes
// received and fails closed. Verified events the service ignores (unknown
// types, missing metadata, absorbed duplicates) get a 200 so the processor
// stops redelivering; a persistence failure answers 500 instead, because
// the processor's redelivery is the only retry mechanism this flow has.
func (h *PaymentHandler) HandleWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "read body failed"})
	}
	event, err := h.Webhook.VerifyEvent(body, c.Request().Header.Get("Stripe-Signature"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid signature"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		if err := h.intentSucceeded(ctx, event); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "webhook processing failed"})
		}
	case stripe.EventTypePaymentIntentPaymentFailed:
		if err := h.intentFailed(ctx, event); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "webhook processing failed"})
		}
	default:
		// Forward-compatible no-op.
	}
	return c.JSON(http.StatusOK, echo.Map{"received": true})
}

// intentSucceeded applies a confirmed charge. A returned error means the
// state change was not persisted and the delivery must not be acked.
func (h *PaymentHandler) intentSucceeded(ctx context.Context, event stripe.Event) error {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		log.Printf("webhook: malformed payment_intent payload: %v", err)
		return nil
	}
	courseID, _ := strconv.ParseUint(pi.Metadata[metaCourseID], 10, 64)
	studentID, _ := strconv.ParseUint(pi.Metadata[metaStudentID], 10, 64)
	if courseID == 0 || studentID == 0 {
		// Malformed event, not a hard failure: log and move on.
		log.Printf("webhook: intent %s missing course/student metadata", pi.ID)
		return nil
	}

	finalized, err := h.Payments.FinalizeSucceeded(ctx, pi.ID, studentID, courseID)
	if err != nil {
		log.Printf("webhook: finalize intent %s failed: %v", pi.ID, err)
		return err
	}
	if !finalized {
		// Duplicate delivery or unknown intent; nothing changed.
		return nil
	}

	if h.PublishEvent != nil {
		if err := h.PublishEvent(ctx, queue.EnrollmentActivatedEvent{
			UserID:          studentID,
			CourseID:        courseID,
			CourseTitle:     pi.Metadata[metaCourseTitle],
			PaymentIntentID: pi.ID,
			AmountCents:     pi.Amount,
			ActivatedAt:     time.Now().UTC().Format(time.RFC3339),
		}); err != nil {
			// Best effort only; the enrollment itself is committed.
			log.Printf("webhook: event publish failed: %v", err)
		}
	}
	return nil
}

func (h *PaymentHandler) intentFailed(ctx context.Context, event stripe.Event) error {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		log.Printf("webhook: malformed payment_intent payload: %v", err)
		return nil
	}
	if _, err := h.Payments.MarkFailed(ctx, pi.ID); err != nil {
		log.Printf("webhook: mark intent %s failed errored: %v", pi.ID, err)
		return err
	}
	return nil
}
