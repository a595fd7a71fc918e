package tasks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"depkeeper/internal/api"
	"depkeeper/internal/repolist"
)

func forkRepo(name string) api.Repository {
	return api.Repository{
		Name:          name,
		FullName:      "acme/" + name,
		Owner:         api.User{Login: "acme"},
		Fork:          true,
		DefaultBranch: "main",
		Permissions:   api.Permissions{Push: true},
	}
}

func TestSyncForks_SyncsOnlyForks(t *testing.T) {
	mockAPI := &MockGitHubClient{}

	source := widgetsRepo() // not a fork
	fork := forkRepo("forked")
	mockAPI.On("ListRepositories", "").Return([]api.Repository{source, fork}, nil)
	mockAPI.On("SyncFork", "acme", "forked", "main").
		Return(&api.MergeUpstreamResponse{MergeType: "fast-forward"}, nil).Once()

	task := NewSyncForksTask(testConfig(), mockAPI, repolist.Set{}, repolist.Set{})

	require.NoError(t, task.Run())
	mockAPI.AssertNotCalled(t, "SyncFork", "acme", "widgets", mock.Anything)
	mockAPI.AssertExpectations(t)
}

func TestSyncForks_DivergedForkDoesNotAbort(t *testing.T) {
	mockAPI := &MockGitHubClient{}

	mockAPI.On("ListRepositories", "").Return([]api.Repository{forkRepo("a"), forkRepo("b")}, nil)
	mockAPI.On("SyncFork", "acme", "a", "main").
		Return(nil, &api.MergeRejectedError{StatusCode: 409, Message: "fork has diverged from upstream"})
	mockAPI.On("SyncFork", "acme", "b", "main").
		Return(&api.MergeUpstreamResponse{MergeType: "merge"}, nil)

	task := NewSyncForksTask(testConfig(), mockAPI, repolist.Set{}, repolist.Set{})

	require.NoError(t, task.Run())
	mockAPI.AssertExpectations(t)
}

func TestSyncForks_ExcludedForkSkipped(t *testing.T) {
	mockAPI := &MockGitHubClient{}

	mockAPI.On("ListRepositories", "").Return([]api.Repository{forkRepo("forked")}, nil)

	exclude := repolist.Set{"acme/forked": {}}
	task := NewSyncForksTask(testConfig(), mockAPI, repolist.Set{}, exclude)

	require.NoError(t, task.Run())
	mockAPI.AssertNotCalled(t, "SyncFork", mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncForks_AuthErrorAborts(t *testing.T) {
	mockAPI := &MockGitHubClient{}

	mockAPI.On("ListRepositories", "").Return([]api.Repository{forkRepo("a")}, nil)
	mockAPI.On("SyncFork", "acme", "a", "main").Return(nil, &api.AuthError{StatusCode: 401})

	task := NewSyncForksTask(testConfig(), mockAPI, repolist.Set{}, repolist.Set{})

	err := task.Run()
	require.Error(t, err)
	assert.True(t, api.IsAuthError(err))
}
