package server

// @title jwpedit API
// @version 1.0
// @description Editing service for the JWP Master Data sheet.
// @description
// @description Stakeholders sign in with name, email and agency, see only their agency's
// @description rows, and may change End Date, Spending and Progress. Every changed row is
// @description written back cell by cell and recorded in the Audit Log sheet.
//
// @BasePath /api/v1
//
// @securityDefinitions.apikey SessionAuth
// @in header
// @name X-Session-Token
// @description Token returned by POST /sessions
//
// @securityDefinitions.apikey AdminKeyAuth
// @in header
// @name X-Admin-Key
// @description Admin password
