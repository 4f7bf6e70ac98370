package reddit

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockClient is a testify mock of Client for use in tests.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) CommentByID(ctx context.Context, id string) (*Comment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Comment), args.Error(1)
}

func (m *MockClient) PostByID(ctx context.Context, id string) (*Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Post), args.Error(1)
}

func (m *MockClient) UserByID(ctx context.Context, id string) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockClient) UserByUsername(ctx context.Context, username string) (*User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockClient) SubredditInfoByID(ctx context.Context, id string) (*SubredditInfo, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SubredditInfo), args.Error(1)
}

func (m *MockClient) CurrentSubredditName(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockClient) ModerationLog(ctx context.Context, subreddit, thingID string) ([]ModLogEntry, error) {
	args := m.Called(ctx, subreddit, thingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ModLogEntry), args.Error(1)
}

func (m *MockClient) SubmitPost(ctx context.Context, opts SubmitPostOptions) (*Post, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Post), args.Error(1)
}

func (m *MockClient) WikiPage(ctx context.Context, subreddit, page string) (*WikiPage, error) {
	args := m.Called(ctx, subreddit, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*WikiPage), args.Error(1)
}

func (m *MockClient) UpdateWikiPage(ctx context.Context, subreddit, page, content string) error {
	args := m.Called(ctx, subreddit, page, content)
	return args.Error(0)
}
