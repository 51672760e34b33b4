package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listUsers(c *gin.Context) {
	result, err := h.auth.ListUsers(pageParam(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	items := make([]gin.H, len(result.Items))
	for i := range result.Items {
		items[i] = userJSON(&result.Items[i])
	}
	c.JSON(http.StatusOK, gin.H{
		"page":          result.Page,
		"pageSize":      result.PageSize,
		"totalElements": result.TotalElements,
		"totalPages":    result.TotalPages,
		"items":         items,
	})
}

func (h *Handler) getUser(c *gin.Context) {
	user, err := h.auth.GetUser(c.Param("userUid"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, userJSON(user))
}

func (h *Handler) createUser(c *gin.Context) {
	var request struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
		Role     string `json:"role"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	user, err := h.auth.CreateUser(request.Username, request.Password, request.Role)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, userJSON(user))
}

func (h *Handler) updateUser(c *gin.Context) {
	var request struct {
		Role     string `json:"role"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	user, err := h.auth.UpdateUser(c.Param("userUid"), request.Role, request.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, userJSON(user))
}

func (h *Handler) deleteUser(c *gin.Context) {
	if err := h.auth.DeleteUser(c.Param("userUid")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
