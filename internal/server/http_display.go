package server

import "fmt"

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo() {
	s.displayEndpoints()
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
}

func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET    /health        - Health check")
	fmt.Println("  GET    /stats         - Server statistics")
	fmt.Println("  POST   /cover-letter  - Generate a cover letter")
	fmt.Println("  POST   /interview     - Generate interview questions")
	fmt.Println("  POST   /tailor        - Tailor a resume")
	fmt.Println("  POST   /chat          - Refine a document through chat")
	fmt.Println("  POST   /sheets        - Log an application to Google Sheets")
	fmt.Println("  GET    /history       - List generated cover letters")
	fmt.Println("  GET    /history/{id}  - Show one cover letter")
	fmt.Println("  DELETE /history/{id}  - Delete one cover letter")
}

func (s *Server) displayAuthInfo() {
	if n := len(s.snapshot().apiKeys); n > 0 {
		fmt.Printf("API authentication: ENABLED (%d keys configured)\n", n)
		fmt.Println("Include 'X-API-Key: <your-key>' or 'Authorization: Bearer <your-key>' on every endpoint except /health and /stats")
	} else {
		fmt.Println("API authentication: DISABLED (no API keys configured)")
		fmt.Println("WARNING: API endpoints are publicly accessible!")
	}
}

func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Println("Request size limit: DISABLED")
	}
}

func (s *Server) displayRateLimitInfo() {
	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
		if s.RateLimit.ByAPIKey {
			fmt.Println("  - Per API key rate limiting enabled")
		}
		if s.RateLimit.ByIP {
			fmt.Println("  - Per IP address rate limiting enabled")
		}
	} else {
		fmt.Println("Rate limiting: DISABLED")
	}
}
