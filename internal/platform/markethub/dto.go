package markethub

type createListingRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Category    string   `json:"category"`
	Location    string   `json:"location,omitempty"`
	ImageURLs   []string `json:"image_urls,omitempty"`
}

type listingResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type messagesResponse struct {
	Messages   []messageEntry `json:"messages"`
	NextCursor string         `json:"next_cursor"`
}

type messageEntry struct {
	ID         string `json:"id"`
	ListingID  string `json:"listing_id"`
	SenderName string `json:"sender_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Body       string `json:"body"`
	SentAt     string `json:"sent_at"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}
