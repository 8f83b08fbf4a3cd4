package observability

const (
	MUsecaseRequests         = "usecase_requests_total"
	MUsecaseDuration         = "usecase_duration_seconds"
	MHTTPRequests            = "http_requests_total"
	MHTTPRequestDuration     = "http_request_duration_seconds"
	MOrdersPlaced            = "orders_placed_total"
	MOrderStageTransitions   = "order_stage_transitions_total"
	MEventPublishFailures    = "event_publish_failed_total"
	MExternalRequests        = "external_requests_total"
	MExternalRequestDuration = "external_request_duration_seconds"
)
