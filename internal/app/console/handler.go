/**
 * 控制台处理器
 * @description: 将 REST 请求转换为资源命令，命令结果统一包装为 APIResponse
 * @func:
 *   - List / ListAll / Aggregates 复数命令
 *   - Get / Create / Save / Delete / Clone / Export 单数命令
 *   - BulkDelete 按ID或过滤器批量删除
 *   - NormalizeFilter 过滤器规范化
 */
package console

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/greenbone/gsa-sub043/internal/model"
	"github.com/greenbone/gsa-sub043/internal/pkg/command"
	"github.com/greenbone/gsa-sub043/internal/pkg/filter"
	"github.com/greenbone/gsa-sub043/internal/pkg/logger"

	"github.com/gin-gonic/gin"
)

// reservedParams 不透传给后端的查询参数
var reservedParams = map[string]bool{
	"cmd":          true,
	"token":        true,
	"filter":       true,
	"filter_id":    true,
	"id":           true,
	"group_column": true,
	"data_columns": true,
}

// Handler 资源处理器
type Handler struct {
	registry *command.Registry
}

// NewHandler 创建处理器
func NewHandler(registry *command.Registry) *Handler {
	return &Handler{registry: registry}
}

// Resources 已注册的资源
func (h *Handler) Resources(c *gin.Context) {
	resources := h.registry.Resources()
	infos := make([]model.ResourceInfo, 0, len(resources))
	for _, res := range resources {
		infos = append(infos, model.ResourceInfo{Name: res.Name, Plural: res.Plural})
	}
	respondOK(c, "Resources retrieved successfully", infos)
}

// List 查询一页
func (h *Handler) List(c *gin.Context) {
	h.list(c, false)
}

// ListAll 查询全部
func (h *Handler) ListAll(c *gin.Context) {
	h.list(c, true)
}

func (h *Handler) list(c *gin.Context, all bool) {
	operation := "list " + c.Param("resource")
	coll, err := h.registry.Collection(c.Param("resource"))
	if err != nil {
		respondError(c, operation, err)
		return
	}

	opts := command.ListOptions{Filter: queryFilter(c), Extra: extraParams(c)}
	var result *command.ListResult
	if all {
		result, err = coll.GetAll(c.Request.Context(), opts)
	} else {
		result, err = coll.Get(c.Request.Context(), opts)
	}
	if err != nil {
		respondError(c, operation, err)
		return
	}
	respondOK(c, fmt.Sprintf("%d %s retrieved", len(result.Data), coll.Resource().Plural), model.NewListResponse(result))
}

// Aggregates 聚合查询 ?group_column=status&data_columns=severity
func (h *Handler) Aggregates(c *gin.Context) {
	operation := "aggregate " + c.Param("resource")
	coll, err := h.registry.Collection(c.Param("resource"))
	if err != nil {
		respondError(c, operation, err)
		return
	}

	result, err := coll.GetAggregates(c.Request.Context(), command.AggregateOptions{
		AggregateType: c.Query("aggregate_type"),
		GroupColumn:   c.Query("group_column"),
		DataColumns:   c.QueryArray("data_columns"),
		Filter:        queryFilter(c),
	})
	if err != nil {
		respondError(c, operation, err)
		return
	}
	respondOK(c, "Aggregates retrieved successfully", result)
}

// Get 查询单个实体
func (h *Handler) Get(c *gin.Context) {
	operation := "get " + c.Param("resource")
	entity, err := h.registry.Entity(c.Param("resource"))
	if err != nil {
		respondError(c, operation, err)
		return
	}

	result, err := entity.Get(c.Request.Context(), c.Param("id"), command.GetOptions{
		Filter: queryFilter(c),
		Extra:  extraParams(c),
	})
	if err != nil {
		respondError(c, operation, err)
		return
	}
	respondOK(c, "Resource retrieved successfully", model.EntityResponse{Item: result.Data, Meta: result.Meta})
}

// Create 创建实体，请求体为驼峰字段的 JSON 对象
func (h *Handler) Create(c *gin.Context) {
	operation := "create " + c.Param("resource")
	entity, err := h.registry.Entity(c.Param("resource"))
	if err != nil {
		respondError(c, operation, err)
		return
	}

	var data map[string]any
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, model.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  model.StatusFailed,
			Message: "Invalid request body",
			Error:   err.Error(),
		})
		return
	}

	result, err := entity.Create(c.Request.Context(), data)
	if err != nil {
		respondError(c, operation, err)
		return
	}
	logger.WithFields(map[string]interface{}{
		"type":       logger.CommandLog,
		"resource":   entity.Resource().Name,
		"id":         result.ID,
		"request_id": requestID(c),
	}).Info("resource created")
	c.JSON(http.StatusCreated, model.APIResponse{
		Code:    http.StatusCreated,
		Status:  model.StatusSuccess,
		Message: "Resource created successfully",
		Data:    result,
	})
}

// Save 保存实体，路径中的ID覆盖请求体中的 id
func (h *Handler) Save(c *gin.Context) {
	operation := "save " + c.Param("resource")
	entity, err := h.registry.Entity(c.Param("resource"))
	if err != nil {
		respondError(c, operation, err)
		return
	}

	var data map[string]any
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, model.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  model.StatusFailed,
			Message: "Invalid request body",
			Error:   err.Error(),
		})
		return
	}
	data["id"] = c.Param("id")

	result, err := entity.Save(c.Request.Context(), data)
	if err != nil {
		respondError(c, operation, err)
		return
	}
	respondOK(c, "Resource saved successfully", result)
}

// Delete 删除单个实体
func (h *Handler) Delete(c *gin.Context) {
	operation := "delete " + c.Param("resource")
	entity, err := h.registry.Entity(c.Param("resource"))
	if err != nil {
		respondError(c, operation, err)
		return
	}

	result, err := entity.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, operation, err)
		return
	}
	respondOK(c, "Resource deleted successfully", result)
}

// BulkDelete 批量删除 ?id=a&id=b 或 ?filter=...
func (h *Handler) BulkDelete(c *gin.Context) {
	operation := "bulk delete " + c.Param("resource")
	coll, err := h.registry.Collection(c.Param("resource"))
	if err != nil {
		respondError(c, operation, err)
		return
	}

	var result *command.ActionResult
	if ids := c.QueryArray("id"); len(ids) > 0 {
		result, err = coll.Delete(c.Request.Context(), ids)
	} else if f := queryFilter(c); !f.IsEmpty() {
		result, err = coll.DeleteByFilter(c.Request.Context(), f)
	} else {
		err = fmt.Errorf("bulk delete needs ids or a filter: %w", command.ErrMissingID)
	}
	if err != nil {
		respondError(c, operation, err)
		return
	}
	respondOK(c, "Resources deleted successfully", result)
}

// Clone 复制实体
func (h *Handler) Clone(c *gin.Context) {
	operation := "clone " + c.Param("resource")
	entity, err := h.registry.Entity(c.Param("resource"))
	if err != nil {
		respondError(c, operation, err)
		return
	}

	result, err := entity.Clone(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, operation, err)
		return
	}
	c.JSON(http.StatusCreated, model.APIResponse{
		Code:    http.StatusCreated,
		Status:  model.StatusSuccess,
		Message: "Resource cloned successfully",
		Data:    result,
	})
}

// Export 导出单个实体，原样返回后端响应体
func (h *Handler) Export(c *gin.Context) {
	operation := "export " + c.Param("resource")
	entity, err := h.registry.Entity(c.Param("resource"))
	if err != nil {
		respondError(c, operation, err)
		return
	}

	result, err := entity.Export(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, operation, err)
		return
	}
	filename := result.Filename
	if filename == "" {
		filename = fmt.Sprintf("%s-%s.xml", entity.Resource().Name, c.Param("id"))
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, result.ContentType, result.Body)
}

// NormalizeFilter 规范化过滤器 ?filter=...
func (h *Handler) NormalizeFilter(c *gin.Context) {
	f := filter.Parse(c.Query("filter"))
	respondOK(c, "Filter normalized", model.NewFilterExplanation(f))
}

// queryFilter 从 filter / filter_id 查询参数构造过滤器，都没有时返回 nil
func queryFilter(c *gin.Context) *filter.Filter {
	text, id := c.Query("filter"), c.Query("filter_id")
	if strings.TrimSpace(text) == "" && id == "" {
		return nil
	}
	f := filter.Parse(text)
	if id != "" {
		f = f.WithID(id)
	}
	return f
}

// extraParams 其余查询参数透传给后端，例如 resource_type、details
func extraParams(c *gin.Context) map[string]any {
	extra := map[string]any{}
	for key, values := range c.Request.URL.Query() {
		if reservedParams[key] || len(values) == 0 {
			continue
		}
		if len(values) == 1 {
			extra[key] = values[0]
		} else {
			extra[key] = values
		}
	}
	return extra
}
