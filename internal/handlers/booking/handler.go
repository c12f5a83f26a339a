package booking

import (
	"net/http"
	"strconv"
	"venue/infras/otel"
	"venue/internal/domains/booking/model/dto"
	"venue/internal/domains/booking/service"
	"venue/shared/constant"
	gDto "venue/shared/dto"
	"venue/shared/failure"
	"venue/shared/validator"
	"venue/transport/http/response"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service service.Booking
	otel    otel.Otel
}

func New(service service.Booking, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/bookings", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateBooking)
		routerGroup.Get("/", handler.GetBookings)
		routerGroup.Get("/mybookings", handler.GetMyBookings)
		routerGroup.Get("/upcoming", handler.GetUpcomingBookings)
		routerGroup.Get("/calendar", handler.GetCalendar)
		routerGroup.Get("/availability", handler.CheckAvailability)
		routerGroup.Get("/{id}", handler.GetBookingByID)
		routerGroup.Put("/{id}", handler.UpdateBooking)
		routerGroup.Delete("/{id}", handler.DeleteBooking)
		routerGroup.Patch("/{id}/decision", handler.DecideBooking)
		routerGroup.Patch("/{id}/cancel", handler.CancelBooking)
	})
}

// CreateBooking handles the creation of a new booking.
// @Summary Create a new booking
// @Description Create a PENDING booking for the venue. Fails with 409 when the slot overlaps an approved or pending booking.
// @Tags Booking
// @Accept json
// @Produce json
// @Param request body dto.CreateBookingRequest true "Create Booking Request"
// @Success 201 {object} response.Data[dto.BookingResponse] "Booking created"
// @Failure 400 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings [post]
// @Security BearerAuth
func (handler *Handler) CreateBooking(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateBooking")
	defer scope.End()

	req := dto.CreateBookingRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		response.Fail(writer, scope, err, "failed to validate request body")

		return
	}

	booking, err := handler.service.Create(ctx, req)
	if err != nil {
		response.Fail(writer, scope, err, "failed to create booking")

		return
	}

	scope.AddEvent("Booking " + booking.ID + " created")

	response.WithJSON(writer, http.StatusCreated, booking)
}

// GetBookings retrieves all bookings based on query parameters.
// @Summary Get all bookings
// @Description Retrieve all bookings with optional filtering and pagination. Administrators only.
// @Tags Booking
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param status query string false "Filter by status (PENDING, APPROVED, REJECTED, CANCELLED, COMPLETED)"
// @Param booking_date query string false "Filter by booking date (YYYY-MM-DD)"
// @Param requester_id query string false "Filter by requester"
// @Success 200 {object} response.Data[dto.GetBookingsResponse] "List of bookings"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings [get]
// @Security BearerAuth
func (handler *Handler) GetBookings(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBookings")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	filter := dto.BookingFilter{
		Status:      r.URL.Query().Get(constant.RequestParamStatus),
		BookingDate: r.URL.Query().Get(constant.RequestParamDate),
		RequesterID: r.URL.Query().Get(constant.RequestParamRequester),
	}

	if err := validator.ValidateStruct(&filter); err != nil {
		response.Fail(w, scope, err, "failed to validate booking filter")

		return
	}

	bookings, err := handler.service.GetAll(ctx, queryParams, filter.FilterGroup())
	if err != nil {
		response.Fail(w, scope, err, "failed to get bookings")

		return
	}

	scope.AddEvent("Bookings retrieved successfully")

	response.WithJSON(w, http.StatusOK, bookings)
}

// GetMyBookings retrieves all bookings for the currently authenticated user.
// @Summary Get my bookings
// @Tags Booking
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Success 200 {object} response.Data[dto.GetBookingsResponse] "List of user's bookings"
// @Failure 401 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/mybookings [get]
// @Security BearerAuth
func (handler *Handler) GetMyBookings(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetMyBookings")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	bookings, err := handler.service.GetMine(ctx, queryParams)
	if err != nil {
		response.Fail(w, scope, err, "failed to get user bookings")

		return
	}

	scope.AddEvent("User bookings retrieved successfully")

	response.WithJSON(w, http.StatusOK, bookings)
}

// GetUpcomingBookings lists approved bookings from today onward.
// @Summary Get upcoming approved bookings
// @Tags Booking
// @Produce json
// @Param days query int false "Window in days (default 7)"
// @Success 200 {object} response.Data[[]dto.BookingResponse]
// @Failure 400 {object} response.Error
// @Router /v1/bookings/upcoming [get]
func (handler *Handler) GetUpcomingBookings(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetUpcomingBookings")
	defer scope.End()

	days := 0

	if value := r.URL.Query().Get(constant.RequestParamDays); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			response.Fail(w, scope, failure.BadRequestFromString("days must be an integer"), "malformed days")

			return
		}

		days = parsed
	}

	bookings, err := handler.service.Upcoming(ctx, days)
	if err != nil {
		response.Fail(w, scope, err, "failed to get upcoming bookings")

		return
	}

	response.WithJSON(w, http.StatusOK, bookings)
}

// GetCalendar returns the approved and pending bookings of a date range.
// @Summary Get the booking calendar
// @Tags Booking
// @Produce json
// @Param from query string true "First date (YYYY-MM-DD)"
// @Param to query string true "Last date (YYYY-MM-DD)"
// @Success 200 {object} response.Data[dto.CalendarResponse]
// @Failure 400 {object} response.Error
// @Router /v1/bookings/calendar [get]
func (handler *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetCalendar")
	defer scope.End()

	from := r.URL.Query().Get(constant.RequestParamFrom)
	to := r.URL.Query().Get(constant.RequestParamTo)

	calendar, err := handler.service.Calendar(ctx, from, to)
	if err != nil {
		response.Fail(w, scope, err, "failed to get calendar")

		return
	}

	response.WithJSON(w, http.StatusOK, calendar)
}

// CheckAvailability reports whether a slot is free of approved and pending bookings.
// @Summary Check slot availability
// @Tags Booking
// @Produce json
// @Param booking_date query string true "Date (YYYY-MM-DD)"
// @Param start_time query string true "Start (HH:MM)"
// @Param end_time query string true "End (HH:MM)"
// @Success 200 {object} response.Data[dto.AvailabilityResponse]
// @Failure 400 {object} response.Error
// @Router /v1/bookings/availability [get]
// @Security BearerAuth
func (handler *Handler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CheckAvailability")
	defer scope.End()

	req := dto.AvailabilityRequest{
		BookingDate: r.URL.Query().Get(constant.RequestParamDate),
		StartTime:   r.URL.Query().Get(constant.RequestParamStartTime),
		EndTime:     r.URL.Query().Get(constant.RequestParamEndTime),
	}

	if err := validator.ValidateStruct(&req); err != nil {
		response.Fail(w, scope, err, "failed to validate availability query")

		return
	}

	availability, err := handler.service.CheckAvailability(ctx, req)
	if err != nil {
		response.Fail(w, scope, err, "failed to check availability")

		return
	}

	response.WithJSON(w, http.StatusOK, availability)
}

// GetBookingByID retrieves a booking by its ID.
// @Summary Get a booking by ID
// @Description Visible to its requester and to administrators.
// @Tags Booking
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Data[dto.BookingResponse] "Booking details"
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetBookingByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBookingByID")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	booking, err := handler.service.Get(ctx, id)
	if err != nil {
		response.Fail(w, scope, err, "failed to get booking by ID")

		return
	}

	scope.AddEvent("Booking retrieved successfully")

	response.WithJSON(w, http.StatusOK, booking)
}

// UpdateBooking updates an existing booking by its ID.
// @Summary Update a booking by ID
// @Description Replace the booking details. A new slot must not overlap any other approved or pending booking.
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.UpdateBookingRequest true "Update Booking Request"
// @Success 200 {object} response.Data[dto.BookingResponse] "Booking updated"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id} [put]
// @Security BearerAuth
func (handler *Handler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateBooking")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	req := dto.UpdateBookingRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		response.Fail(w, scope, err, "failed to validate request body")

		return
	}

	booking, err := handler.service.Update(ctx, req, id)
	if err != nil {
		response.Fail(w, scope, err, "failed to update booking")

		return
	}

	scope.AddEvent("Booking " + id + " updated")

	response.WithJSON(w, http.StatusOK, booking)
}

// DecideBooking approves or rejects a pending booking.
// @Summary Approve or reject a booking
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.DecisionRequest true "Decision"
// @Success 200 {object} response.Data[dto.BookingResponse]
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 422 {object} response.Error
// @Router /v1/bookings/{id}/decision [patch]
// @Security BearerAuth
func (handler *Handler) DecideBooking(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DecideBooking")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	req := dto.DecisionRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		response.Fail(w, scope, err, "failed to validate request body")

		return
	}

	booking, err := handler.service.Decide(ctx, req, id)
	if err != nil {
		response.Fail(w, scope, err, "failed to decide booking")

		return
	}

	scope.AddEvent("Booking " + id + " " + booking.Status)

	response.WithJSON(w, http.StatusOK, booking)
}

// CancelBooking withdraws a pending or approved booking.
// @Summary Cancel a booking
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.CancelRequest false "Cancellation reason"
// @Success 200 {object} response.Data[dto.BookingResponse]
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 422 {object} response.Error
// @Router /v1/bookings/{id}/cancel [patch]
// @Security BearerAuth
func (handler *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CancelBooking")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	req := dto.CancelRequest{}
	if r.ContentLength != 0 {
		if err := validator.Validate(r.Body, &req); err != nil {
			response.Fail(w, scope, err, "failed to validate request body")

			return
		}
	}

	booking, err := handler.service.Cancel(ctx, req, id)
	if err != nil {
		response.Fail(w, scope, err, "failed to cancel booking")

		return
	}

	scope.AddEvent("Booking " + id + " cancelled")

	response.WithJSON(w, http.StatusOK, booking)
}

// DeleteBooking deletes a booking by its ID.
// @Summary Delete a booking by ID
// @Description Remove the booking together with its requirements.
// @Tags Booking
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Message "Booking deleted successfully"
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteBooking")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	if err := handler.service.Delete(ctx, id); err != nil {
		response.Fail(w, scope, err, "failed to delete booking")

		return
	}

	scope.AddEvent("Booking " + id + " deleted")

	response.WithMessage(w, http.StatusOK, "Booking deleted successfully")
}
