package repair_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/intake/internal/app/repair"
	"github.com/slok/intake/internal/model"
	"github.com/slok/intake/internal/progress"
	storageio "github.com/slok/intake/internal/storage/io"
	"github.com/slok/intake/internal/storage/storagemock"
)

func newEngine(t *testing.T) (*progress.Engine, model.Template) {
	t.Helper()
	tpl, err := storageio.DefaultTemplate()
	require.NoError(t, err)
	e, err := progress.NewEngine(progress.EngineConfig{Milestones: tpl.Milestones})
	require.NoError(t, err)
	return e, tpl
}

// drifted returns a dashboard with the first module completed and the second one locked.
func drifted(e *progress.Engine, tpl model.Template) *model.Dashboard {
	d := e.NewDashboard("u1", tpl)
	for i := range d.Modules[0].Sections {
		d.Modules[0].Sections[i].Status = model.SectionStatusCompleted
		d.Modules[0].Sections[i].Unlocked = true
	}
	d.Revision = 7
	return &d
}

func TestService_Run(t *testing.T) {
	errStore := errors.New("store is down")

	tests := map[string]struct {
		mock       func(m *storagemock.MockRepository, e *progress.Engine, tpl model.Template)
		req        repair.Request
		expChanged bool
		expHealed  []string
		expErr     error
	}{
		"a healthy dashboard should not be written": {
			mock: func(m *storagemock.MockRepository, e *progress.Engine, tpl model.Template) {
				d := e.NewDashboard("u1", tpl)
				m.On("GetDashboard", mock.Anything, "u1").Once().Return(&d, nil)
			},
			req: repair.Request{UserID: "u1"},
		},

		"a drifted dashboard should be healed and written": {
			mock: func(m *storagemock.MockRepository, e *progress.Engine, tpl model.Template) {
				m.On("GetDashboard", mock.Anything, "u1").Once().Return(drifted(e, tpl), nil)
				m.On("UpdateDashboard", mock.Anything, mock.MatchedBy(func(d model.Dashboard) bool {
					return d.Revision == 7 && d.Modules[1].Unlocked && d.Modules[1].Sections[0].Unlocked
				})).Once().Return(nil)
			},
			req:        repair.Request{UserID: "u1"},
			expChanged: true,
			expHealed: []string{
				"module brand-identity unlocked",
				"section brand-identity/brand-voice unlocked",
			},
		},

		"a conflict should retry the repair on the fresh dashboard": {
			mock: func(m *storagemock.MockRepository, e *progress.Engine, tpl model.Template) {
				m.On("GetDashboard", mock.Anything, "u1").Twice().Return(func(context.Context, string) (*model.Dashboard, error) {
					return drifted(e, tpl), nil
				})
				m.On("UpdateDashboard", mock.Anything, mock.Anything).Once().Return(model.ErrConflict)
				m.On("UpdateDashboard", mock.Anything, mock.Anything).Once().Return(nil)
			},
			req:        repair.Request{UserID: "u1"},
			expChanged: true,
			expHealed: []string{
				"module brand-identity unlocked",
				"section brand-identity/brand-voice unlocked",
			},
		},

		"a missing dashboard should fail": {
			mock: func(m *storagemock.MockRepository, e *progress.Engine, tpl model.Template) {
				m.On("GetDashboard", mock.Anything, "u1").Once().Return(nil, model.ErrNotFound)
			},
			req:    repair.Request{UserID: "u1"},
			expErr: model.ErrNotFound,
		},

		"a store failure on write should fail": {
			mock: func(m *storagemock.MockRepository, e *progress.Engine, tpl model.Template) {
				m.On("GetDashboard", mock.Anything, "u1").Once().Return(drifted(e, tpl), nil)
				m.On("UpdateDashboard", mock.Anything, mock.Anything).Once().Return(errStore)
			},
			req:    repair.Request{UserID: "u1"},
			expErr: errStore,
		},

		"a missing user id should fail": {
			mock:   func(m *storagemock.MockRepository, e *progress.Engine, tpl model.Template) {},
			expErr: model.ErrNotValid,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			e, tpl := newEngine(t)
			m := storagemock.NewMockRepository(t)
			test.mock(m, e, tpl)

			svc, err := repair.NewService(repair.ServiceConfig{Engine: e, Repository: m})
			require.NoError(err)

			res, err := svc.Run(context.Background(), test.req)
			if test.expErr != nil {
				require.Error(err)
				assert.True(errors.Is(err, test.expErr))
				return
			}
			require.NoError(err)
			assert.Equal(test.expChanged, res.Changed)
			assert.Equal(test.expHealed, res.Healed)
		})
	}
}

func TestNewService(t *testing.T) {
	e, _ := newEngine(t)

	_, err := repair.NewService(repair.ServiceConfig{Repository: &storagemock.MockRepository{}})
	assert.Error(t, err)
	_, err = repair.NewService(repair.ServiceConfig{Engine: e})
	assert.Error(t, err)
	_, err = repair.NewService(repair.ServiceConfig{Engine: e, Repository: &storagemock.MockRepository{}})
	assert.NoError(t, err)
}
