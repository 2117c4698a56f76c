package record

// entityFlags 所有实体共有的 0/1 标志字段
var entityFlags = []string{"writable", "inUse", "orphan", "trash", "active"}

// ParseEntity 实体类资源的通用后处理
//   - owner 统一为 {name}
//   - creationTime / modificationTime 转为时间
//   - writable / inUse / orphan / trash / active 转为布尔值
//   - permissions.permission -> userCapabilities（权限名列表）
//   - userTags.tag -> userTags（标签列表）
func ParseEntity(r Record) Record {
	if r == nil {
		return nil
	}
	if owner, ok := r["owner"].(string); ok {
		if owner == "" {
			delete(r, "owner")
		} else {
			r["owner"] = Record{"name": owner}
		}
	}

	r = DateFields("creationTime", "modificationTime", "endTime")(r)
	r = BoolFields(entityFlags...)(r)

	if perms, ok := r["permissions"]; ok {
		names := []string{}
		if container, isRecord := perms.(Record); isRecord {
			for _, p := range Records(container["permission"]) {
				if name := p.String("name"); name != "" {
					names = append(names, name)
				}
			}
		}
		delete(r, "permissions")
		r["userCapabilities"] = names
	}

	if tags, ok := r["userTags"]; ok {
		list := []Record{}
		if container, isRecord := tags.(Record); isRecord {
			list = Records(container["tag"])
		}
		r["userTags"] = list
	}
	return r
}

// EntityMapper 结构规范化 + 通用实体处理 + 资源特定处理
func EntityMapper(post ...PostFunc) Mapper {
	return Chain(Default, append([]PostFunc{ParseEntity}, post...)...)
}
