// Package calendar_tools provides MCP tools for myDo events in Google Calendar.
//
// Authorization tools are always registered so an assistant can walk the user
// through the OAuth flow:
//  1. calendar_auth_url returns the consent URL
//  2. the user authorizes access and copies the code
//  3. calendar_save_auth_code exchanges the code and stores the token
//
// Afterwards calendar_list_mydos reads the myDos of a day. calendar_create_mydo
// and calendar_complete_mydos change the calendar and are only registered when
// write operations are enabled.
package calendar_tools
