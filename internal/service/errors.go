package service

import "github.com/fjod/go_delivery/internal/repository"

var (
	ErrOrderNotFound    = repository.ErrOrderNotFound
	ErrCategoryNotFound = repository.ErrCategoryNotFound
	ErrProductNotFound  = repository.ErrProductNotFound
	ErrBannerNotFound   = repository.ErrBannerNotFound
)

const (
	MsgOrderFailed    = "could not process the order, please try again"
	MsgOrderNotFound  = "order not found"
	MsgDuplicateName  = "a category with this name already exists"
	MsgCategoryInUse  = "this category still has products"
	MsgCategoryFailed = "could not save the category"
	MsgCategoryGone   = "category not found"
	MsgProductFailed  = "could not save the product"
	MsgProductGone    = "product not found"
	MsgBannerFailed   = "could not save the banner"
	MsgBannerGone     = "banner not found"
)
