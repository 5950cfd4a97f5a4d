package supabase

// ErrorResponse is the PostgREST error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

type deleteArgs struct {
	UUID string `json:"p_uuid"`
}
