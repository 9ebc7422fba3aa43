package database

import (
	"github.com/stretchr/testify/mock"
)

type MockEstatelyRepository struct {
	mock.Mock
}

func (m *MockEstatelyRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockEstatelyRepository) CreateAccount(params CreateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockEstatelyRepository) UpdateAccount(params UpdateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockEstatelyRepository) GetAccountById(accountId int) (User, error) {
	args := m.Called(accountId)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockEstatelyRepository) GetAccountByEmail(email string) (User, error) {
	args := m.Called(email)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockEstatelyRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	args := m.Called(params)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockEstatelyRepository) GetMessageById(messageId int) (Message, error) {
	args := m.Called(messageId)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockEstatelyRepository) GetConversationMessages(viewerId, peerId, page, limit int) ([]Message, int, error) {
	args := m.Called(viewerId, peerId, page, limit)
	return args.Get(0).([]Message), args.Int(1), args.Error(2)
}
func (m *MockEstatelyRepository) ListConversations(viewerId int) ([]ConversationSummary, error) {
	args := m.Called(viewerId)
	return args.Get(0).([]ConversationSummary), args.Error(1)
}
func (m *MockEstatelyRepository) MarkMessageRead(messageId int) (Message, error) {
	args := m.Called(messageId)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockEstatelyRepository) MarkConversationRead(viewerId, peerId int) (int64, error) {
	args := m.Called(viewerId, peerId)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockEstatelyRepository) DeleteMessage(messageId int) error {
	args := m.Called(messageId)
	return args.Error(0)
}
func (m *MockEstatelyRepository) DeleteConversation(viewerId, peerId int) (int64, error) {
	args := m.Called(viewerId, peerId)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockEstatelyRepository) CreateProperty(params CreatePropertyParams) (Property, error) {
	args := m.Called(params)
	return args.Get(0).(Property), args.Error(1)
}
func (m *MockEstatelyRepository) GetPropertyByExternalId(externalId string) (Property, error) {
	args := m.Called(externalId)
	return args.Get(0).(Property), args.Error(1)
}
func (m *MockEstatelyRepository) ListProperties(params ListPropertiesParams) ([]Property, int, error) {
	args := m.Called(params)
	return args.Get(0).([]Property), args.Int(1), args.Error(2)
}
func (m *MockEstatelyRepository) ListPropertiesByOwner(ownerId int) ([]Property, error) {
	args := m.Called(ownerId)
	return args.Get(0).([]Property), args.Error(1)
}
func (m *MockEstatelyRepository) UpdateProperty(params UpdatePropertyParams) (Property, error) {
	args := m.Called(params)
	return args.Get(0).(Property), args.Error(1)
}
func (m *MockEstatelyRepository) DeleteProperty(propertyId int) error {
	args := m.Called(propertyId)
	return args.Error(0)
}
func (m *MockEstatelyRepository) AddFavorite(accountId, propertyId int) error {
	args := m.Called(accountId, propertyId)
	return args.Error(0)
}
func (m *MockEstatelyRepository) RemoveFavorite(accountId, propertyId int) error {
	args := m.Called(accountId, propertyId)
	return args.Error(0)
}
func (m *MockEstatelyRepository) ListFavorites(accountId int) ([]Property, error) {
	args := m.Called(accountId)
	return args.Get(0).([]Property), args.Error(1)
}
func (m *MockEstatelyRepository) IsFavorite(accountId, propertyId int) (bool, error) {
	args := m.Called(accountId, propertyId)
	return args.Bool(0), args.Error(1)
}
