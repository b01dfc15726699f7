package handler

//go:generate mockgen -source=handler.go -destination=mocks/handler_mock.go -package=mocks Service

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"vetcore/internal/dose/handler/mocks"
	"vetcore/internal/dose/models"
	"vetcore/internal/dose/service"
	dErrors "vetcore/pkg/domain-errors"
	id "vetcore/pkg/domain"
	"vetcore/pkg/requestcontext"
)

type HandlerSuite struct {
	suite.Suite

	orgID   id.OrgID
	router  *chi.Mux
	service *mocks.MockService
}

func (s *HandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	s.orgID = id.OrgID(uuid.New())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = chi.NewRouter()
	New(s.service, logger).Register(s.router)
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) do(method, target string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	req = req.WithContext(requestcontext.WithOrgID(req.Context(), s.orgID))

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerSuite) sampleDose() *models.Dose {
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	return &models.Dose{
		ID:             id.NewDoseID(),
		OrgID:          s.orgID,
		AssignmentID:   id.NewAssignmentID(),
		PatientID:      id.PatientID(uuid.New()),
		ProtocolID:     id.ProtocolID(uuid.New()),
		EntryID:        id.EntryID(uuid.New()),
		VaccineName:    "Rabies",
		ApplicationAge: 3,
		ValidityMonths: 12,
		Mandatory:      true,
		Enabled:        true,
		Status:         models.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (s *HandlerSuite) TestComplete() {
	s.Run("empty body completes with defaults", func() {
		d := s.sampleDose()
		s.service.EXPECT().Complete(gomock.Any(), s.orgID, d.ID, nil).Return(d, nil)

		w := s.do(http.MethodPost, "/doses/"+d.ID.String()+"/complete", nil)
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("explicit administered date is forwarded", func() {
		d := s.sampleDose()
		want := time.Date(2026, 1, 30, 0, 0, 0, 0, time.UTC)
		s.service.EXPECT().Complete(gomock.Any(), s.orgID, d.ID, &want).Return(d, nil)

		w := s.do(http.MethodPost, "/doses/"+d.ID.String()+"/complete",
			map[string]string{"administered_date": "2026-01-30"})
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("unparseable date is a 400", func() {
		w := s.do(http.MethodPost, "/doses/"+id.NewDoseID().String()+"/complete",
			map[string]string{"administered_date": "January 30"})
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("already-completed dose is a 409", func() {
		doseID := id.NewDoseID()
		s.service.EXPECT().Complete(gomock.Any(), s.orgID, doseID, nil).
			Return(nil, dErrors.New(dErrors.CodeAlreadyCompleted, "done"))

		w := s.do(http.MethodPost, "/doses/"+doseID.String()+"/complete", nil)
		s.Equal(http.StatusConflict, w.Code)
		s.Contains(w.Body.String(), "already_completed")
	})

	s.Run("disabled dose is a 409", func() {
		doseID := id.NewDoseID()
		s.service.EXPECT().Complete(gomock.Any(), s.orgID, doseID, nil).
			Return(nil, dErrors.New(dErrors.CodeDoseDisabled, "disabled"))

		w := s.do(http.MethodPost, "/doses/"+doseID.String()+"/complete", nil)
		s.Equal(http.StatusConflict, w.Code)
		s.Contains(w.Body.String(), "dose_disabled")
	})
}

func (s *HandlerSuite) TestCancelAndReschedule() {
	s.Run("cancel returns the updated dose", func() {
		d := s.sampleDose()
		s.service.EXPECT().Cancel(gomock.Any(), s.orgID, d.ID).Return(d, nil)

		w := s.do(http.MethodPost, "/doses/"+d.ID.String()+"/cancel", nil)
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("reschedule requires a date", func() {
		w := s.do(http.MethodPost, "/doses/"+id.NewDoseID().String()+"/reschedule",
			map[string]string{})
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("reschedule forwards the parsed date", func() {
		d := s.sampleDose()
		want := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
		s.service.EXPECT().Reschedule(gomock.Any(), s.orgID, d.ID, want).Return(d, nil)

		w := s.do(http.MethodPost, "/doses/"+d.ID.String()+"/reschedule",
			map[string]string{"scheduled_date": "2026-03-15"})
		s.Equal(http.StatusOK, w.Code)
	})
}

func (s *HandlerSuite) TestToggleEnabled() {
	s.Run("forwards the flag", func() {
		d := s.sampleDose()
		s.service.EXPECT().ToggleEnabled(gomock.Any(), s.orgID, d.ID, false).Return(d, nil)

		w := s.do(http.MethodPut, "/doses/"+d.ID.String()+"/enabled",
			map[string]bool{"enabled": false})
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("missing flag is a 400", func() {
		w := s.do(http.MethodPut, "/doses/"+id.NewDoseID().String()+"/enabled",
			map[string]string{})
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *HandlerSuite) TestUpdate() {
	s.Run("completing via update without a date surfaces the conflict", func() {
		doseID := id.NewDoseID()
		s.service.EXPECT().Update(gomock.Any(), s.orgID, doseID, gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeMissingAdministeredDate, "missing date"))

		w := s.do(http.MethodPatch, "/doses/"+doseID.String(),
			map[string]string{"status": "completed"})
		s.Equal(http.StatusConflict, w.Code)
		s.Contains(w.Body.String(), "missing_administered_date")
	})

	s.Run("invalid entry id is a 400", func() {
		w := s.do(http.MethodPatch, "/doses/"+id.NewDoseID().String(),
			map[string]string{"entry_id": "nope"})
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *HandlerSuite) TestAddDose() {
	s.Run("creates the dose", func() {
		d := s.sampleDose()
		s.service.EXPECT().AddDose(gomock.Any(), s.orgID, d.AssignmentID, service.AddInput{EntryID: d.EntryID}).
			Return(d, nil)

		w := s.do(http.MethodPost, "/assignments/"+d.AssignmentID.String()+"/doses",
			map[string]string{"entry_id": d.EntryID.String()})
		s.Equal(http.StatusCreated, w.Code)

		var resp DoseResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Equal(d.ID.String(), resp.ID)
	})

	s.Run("entry outside the protocol is a 409", func() {
		assignmentID := id.NewAssignmentID()
		s.service.EXPECT().AddDose(gomock.Any(), s.orgID, assignmentID, gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeEntryNotInProtocol, "wrong protocol"))

		w := s.do(http.MethodPost, "/assignments/"+assignmentID.String()+"/doses",
			map[string]string{"entry_id": uuid.NewString()})
		s.Equal(http.StatusConflict, w.Code)
		s.Contains(w.Body.String(), "entry_not_in_protocol")
	})

	s.Run("duplicate pending dose is a 409", func() {
		assignmentID := id.NewAssignmentID()
		s.service.EXPECT().AddDose(gomock.Any(), s.orgID, assignmentID, gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeDuplicatePendingDose, "duplicate"))

		w := s.do(http.MethodPost, "/assignments/"+assignmentID.String()+"/doses",
			map[string]string{"entry_id": uuid.NewString()})
		s.Equal(http.StatusConflict, w.Code)
		s.Contains(w.Body.String(), "duplicate_pending_dose")
	})
}

func (s *HandlerSuite) TestList() {
	s.Run("forwards parsed filters", func() {
		d := s.sampleDose()
		s.service.EXPECT().List(gomock.Any(), s.orgID, gomock.Any(), gomock.Any()).
			Return([]*models.Dose{d}, 1, nil)

		w := s.do(http.MethodGet, "/doses?status=pending&enabled=true&vaccine_name=rab", nil)
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("bad enabled filter is a 400", func() {
		w := s.do(http.MethodGet, "/doses?enabled=maybe", nil)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("missing org context is a 401", func() {
		req := httptest.NewRequest(http.MethodGet, "/doses", nil)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		s.Equal(http.StatusUnauthorized, w.Code)
	})
}
