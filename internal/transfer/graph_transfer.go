package transfer

// Shared shapes for the Meta Graph family (Instagram, Facebook, Threads).

type GraphIDResponse struct {
	ID string `json:"id"`
}

type GraphErrorResponse struct {
	Error struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode"`
		FbtraceID    string `json:"fbtrace_id"`
	} `json:"error"`
}

type GraphContainerStatus struct {
	StatusCode string `json:"status_code"`
	Status     string `json:"status"`
}

type GraphTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type GoogleUserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}
