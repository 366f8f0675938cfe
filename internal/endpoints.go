package internal

import (
	"net/http"
	"strings"
)

// Endpoint names accepted by Client.Call.
const (
	EndpointComments      = "comments"
	EndpointSubmissions   = "submissions"
	EndpointThread        = "thread"
	EndpointMoreChildren  = "morechildren"
	EndpointReport        = "report"
	EndpointRemove        = "remove"
	EndpointReply         = "reply"
	EndpointDistinguish   = "distinguish"
	EndpointSubmit        = "submit"
	EndpointModLog        = "modlog"
	EndpointFlairList     = "flairlist"
	EndpointOverview      = "overview"
	EndpointUserComments  = "u_comments"
	EndpointUserSubmitted = "u_submitted"
	EndpointInbox         = "inbox"
	EndpointSent          = "sent"
	EndpointModmail       = "modmail"
	EndpointMessage       = "message"
	EndpointModmailThread = "message_m"
	EndpointCompose       = "compose"
	EndpointMySubs        = "mysubs"
	EndpointMyMods        = "mymods"
	EndpointBanned        = "banned"
	EndpointBan           = "ban"
	EndpointUnban         = "unban"
	EndpointAbout         = "about"
	EndpointEdit          = "edit"
	EndpointSiteAdmin     = "site_admin"
	EndpointWikiWrite     = "wiki_write"
	EndpointWikiPage      = "wiki"
)

// Endpoint describes one API call. Path is relative to the client's base URL
// and may contain the placeholders {r} and {p}, filled from the resource
// arguments of Resolve.
type Endpoint struct {
	Name   string
	Path   string
	Method string
	// Auth marks endpoints that need a bearer token. The others are sent to
	// the public host without one.
	Auth bool
	// Args are default parameters; caller parameters override them.
	Args map[string]string
	// UserScoped endpoints report a missing account with a 404.
	UserScoped bool
}

var endpoints = map[string]Endpoint{
	EndpointComments:     {Path: "r/{r}/comments.json", Method: http.MethodGet},
	EndpointSubmissions:  {Path: "r/{r}/new.json", Method: http.MethodGet},
	EndpointThread:       {Path: "comments/{r}.json", Method: http.MethodGet},
	EndpointMoreChildren: {Path: "api/morechildren.json", Method: http.MethodGet, Args: map[string]string{"api_type": "json"}},

	EndpointReport:      {Path: "api/report.json", Method: http.MethodPost, Auth: true},
	EndpointRemove:      {Path: "api/remove.json", Method: http.MethodPost, Auth: true},
	EndpointReply:       {Path: "api/comment.json", Method: http.MethodPost, Auth: true, Args: map[string]string{"api_type": "json"}},
	EndpointDistinguish: {Path: "api/distinguish.json", Method: http.MethodPost, Auth: true},
	EndpointSubmit:      {Path: "api/submit.json", Method: http.MethodPost, Auth: true, Args: map[string]string{"api_type": "json"}},

	EndpointModLog:    {Path: "r/{r}/about/log.json", Method: http.MethodGet, Auth: true},
	EndpointFlairList: {Path: "r/{r}/api/flairlist.json", Method: http.MethodGet, Auth: true},

	EndpointOverview:      {Path: "user/{r}/overview.json", Method: http.MethodGet, UserScoped: true},
	EndpointUserComments:  {Path: "user/{r}/comments.json", Method: http.MethodGet, UserScoped: true},
	EndpointUserSubmitted: {Path: "user/{r}/submitted.json", Method: http.MethodGet, UserScoped: true},
	EndpointInbox:         {Path: "message/inbox.json", Method: http.MethodGet, Auth: true},
	EndpointSent:          {Path: "message/sent.json", Method: http.MethodGet, Auth: true},
	EndpointModmail:       {Path: "r/{r}/message/moderator/inbox.json", Method: http.MethodGet, Auth: true},
	EndpointMessage:       {Path: "message/messages/{r}.json", Method: http.MethodGet, Auth: true},
	EndpointModmailThread: {Path: "r/{r}/message/messages/{p}.json", Method: http.MethodGet, Auth: true},

	EndpointCompose: {Path: "api/compose.json", Method: http.MethodPost, Auth: true, Args: map[string]string{"api_type": "json"}},

	EndpointMySubs: {Path: "subreddits/mine/subscriber.json", Method: http.MethodGet, Auth: true},
	EndpointMyMods: {Path: "subreddits/mine/moderator.json", Method: http.MethodGet, Auth: true},

	EndpointBanned:    {Path: "r/{r}/about/banned.json", Method: http.MethodGet, Auth: true},
	EndpointBan:       {Path: "api/friend", Method: http.MethodPost, Auth: true, Args: map[string]string{"type": "banned"}},
	EndpointUnban:     {Path: "api/unfriend", Method: http.MethodPost, Auth: true, Args: map[string]string{"type": "banned"}},
	EndpointAbout:     {Path: "r/{r}/about.json", Method: http.MethodGet},
	EndpointEdit:      {Path: "r/{r}/about/edit.json", Method: http.MethodGet, Auth: true},
	EndpointSiteAdmin: {Path: "api/site_admin", Method: http.MethodPost, Auth: true, Args: map[string]string{"api_type": "json"}},

	EndpointWikiWrite: {Path: "r/{r}/api/wiki/edit", Method: http.MethodPost, Auth: true},
	EndpointWikiPage:  {Path: "r/{r}/wiki/{p}.json", Method: http.MethodGet},
}

// LookupEndpoint returns the endpoint registered under name.
func LookupEndpoint(name string) (Endpoint, bool) {
	ep, ok := endpoints[name]
	if ok {
		ep.Name = name
	}
	return ep, ok
}

// Resolve fills the path placeholders. The first resource replaces {r} and
// the second {p}.
func (e Endpoint) Resolve(resources ...string) string {
	path := e.Path
	placeholders := []string{"{r}", "{p}"}
	for i, ph := range placeholders {
		value := ""
		if i < len(resources) {
			value = resources[i]
		}
		path = strings.ReplaceAll(path, ph, value)
	}
	return path
}
