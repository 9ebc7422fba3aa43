package database

type EstatelyRepository interface {
	Ping() error

	CreateAccount(params CreateAccountParams) (User, error)
	UpdateAccount(params UpdateAccountParams) (User, error)
	GetAccountById(accountId int) (User, error)
	GetAccountByEmail(email string) (User, error)

	CreateMessage(params CreateMessageParams) (Message, error)
	GetMessageById(messageId int) (Message, error)
	GetConversationMessages(viewerId, peerId, page, limit int) ([]Message, int, error)
	ListConversations(viewerId int) ([]ConversationSummary, error)
	MarkMessageRead(messageId int) (Message, error)
	MarkConversationRead(viewerId, peerId int) (int64, error)
	DeleteMessage(messageId int) error
	DeleteConversation(viewerId, peerId int) (int64, error)

	CreateProperty(params CreatePropertyParams) (Property, error)
	GetPropertyByExternalId(externalId string) (Property, error)
	ListProperties(params ListPropertiesParams) ([]Property, int, error)
	ListPropertiesByOwner(ownerId int) ([]Property, error)
	UpdateProperty(params UpdatePropertyParams) (Property, error)
	DeleteProperty(propertyId int) error

	AddFavorite(accountId, propertyId int) error
	RemoveFavorite(accountId, propertyId int) error
	ListFavorites(accountId int) ([]Property, error)
	IsFavorite(accountId, propertyId int) (bool, error)
}
