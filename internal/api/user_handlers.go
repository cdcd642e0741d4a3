package api

import (
	"net/http"

	"github.com/listenupapp/readinglists-server/internal/domain"
	"github.com/listenupapp/readinglists-server/internal/http/response"
)

func userView(u *domain.User) UserView {
	return UserView{ID: u.ID}
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	p, err := parsePage(r.URL.Query())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	page, err := s.services.Users.List(r.Context(), p.Limit, p.Offset)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, UserPage{
		Users: pageOf(page, userView),
		Count: page.Total,
		Next:  s.nextURL(r, p, page.HasMore, nil),
	}, s.logger)
}
