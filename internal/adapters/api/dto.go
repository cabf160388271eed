package api

import (
	"time"

	"github.com/floroz/bidhub/internal/domain/auction"
	"github.com/floroz/bidhub/internal/domain/chat"
)

// Wire representations. Field names follow the client contract, timestamps
// are RFC 3339.

type userDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type bidDTO struct {
	ID        int64   `json:"id"`
	Amount    int64   `json:"amount"`
	Timestamp string  `json:"timestamp"`
	Bidder    userDTO `json:"bidder"`
}

type productDTO struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	ImageURL      string   `json:"imageUrl"`
	StartingPrice int64    `json:"startingPrice"`
	Bids          []bidDTO `json:"bids"`
	EndDate       string   `json:"endDate"`
	Seller        userDTO  `json:"seller"`
}

type messageDTO struct {
	ID        int64   `json:"id"`
	Text      string  `json:"text"`
	Sender    userDTO `json:"sender"`
	Timestamp string  `json:"timestamp"`
}

type conversationDTO struct {
	ID           string       `json:"id"`
	Product      productDTO   `json:"product"`
	Buyer        userDTO      `json:"buyer"`
	Seller       userDTO      `json:"seller"`
	Messages     []messageDTO `json:"messages"`
	IsBotEnabled bool         `json:"isBotEnabled"`
}

func mapUser(u auction.User) userDTO {
	return userDTO{ID: u.ID, Name: u.Name}
}

func mapBid(b auction.Bid) bidDTO {
	return bidDTO{
		ID:        b.ID,
		Amount:    b.Amount,
		Timestamp: b.Timestamp.Format(time.RFC3339),
		Bidder:    mapUser(b.Bidder),
	}
}

func mapProduct(p auction.Product) productDTO {
	bids := make([]bidDTO, len(p.Bids))
	for i, b := range p.Bids {
		bids[i] = mapBid(b)
	}
	return productDTO{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		ImageURL:      p.ImageURL,
		StartingPrice: p.StartingPrice,
		Bids:          bids,
		EndDate:       p.EndDate.Format(time.RFC3339),
		Seller:        mapUser(p.Seller),
	}
}

func mapProducts(products []auction.Product) []productDTO {
	out := make([]productDTO, len(products))
	for i, p := range products {
		out[i] = mapProduct(p)
	}
	return out
}

func mapMessage(m chat.Message) messageDTO {
	return messageDTO{
		ID:        m.ID,
		Text:      m.Text,
		Sender:    mapUser(m.Sender),
		Timestamp: m.Timestamp.Format(time.RFC3339),
	}
}

func mapConversation(c chat.Conversation) conversationDTO {
	messages := make([]messageDTO, len(c.Messages))
	for i, m := range c.Messages {
		messages[i] = mapMessage(m)
	}
	return conversationDTO{
		ID:           c.ID,
		Product:      mapProduct(c.Product),
		Buyer:        mapUser(c.Buyer),
		Seller:       mapUser(c.Seller),
		Messages:     messages,
		IsBotEnabled: c.IsBotEnabled,
	}
}

func mapConversations(conversations []chat.Conversation) []conversationDTO {
	out := make([]conversationDTO, len(conversations))
	for i, c := range conversations {
		out[i] = mapConversation(c)
	}
	return out
}
